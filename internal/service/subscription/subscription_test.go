package subscription

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/usegalaxy-au/galaxy_web/pkg/crypto"
	"github.com/usegalaxy-au/galaxy_web/pkg/logs"
)

type failingSet struct{}

func (failingSet) Add(context.Context, string) error { return errors.New("connection refused") }
func (failingSet) Contains(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func newService(t *testing.T, set Set) Service {
	t.Helper()
	signer, err := crypto.NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	return New(set, signer, logs.Discard())
}

func TestLinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, NewMemorySet())

	link := svc.Link("https", "site.usegalaxy.org.au", "Jane@UQ.edu.au")
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse %q: %v", link, err)
	}
	if u.Host != "site.usegalaxy.org.au" || u.Path != "/unsubscribe" {
		t.Errorf("unexpected link %q", link)
	}

	q := u.Query()
	if err := svc.Unsubscribe(ctx, q.Get("email"), q.Get("token")); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	got, err := svc.IsUnsubscribed(ctx, " jane@uq.edu.au ")
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("address should be unsubscribed")
	}
}

func TestUnsubscribeRejects(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, NewMemorySet())

	tests := []struct {
		name  string
		addr  string
		token string
		want  error
	}{
		{"empty address", "", "x", ErrNoEmail},
		{"forged token", "jane@uq.edu.au", "AAAA", ErrInvalidLink},
		{"undecodable token", "jane@uq.edu.au", "%%%", ErrInvalidLink},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Unsubscribe(ctx, tc.addr, tc.token); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	if got, _ := svc.IsUnsubscribed(ctx, "jane@uq.edu.au"); got {
		t.Error("rejected link must not unsubscribe")
	}
}

func TestUnsubscribeStoreError(t *testing.T) {
	signer, _ := crypto.NewSigner("test-secret")
	svc := New(failingSet{}, signer, logs.Discard())

	err := svc.Unsubscribe(context.Background(), "jane@uq.edu.au", signer.Sign("jane@uq.edu.au"))
	if err == nil || errors.Is(err, ErrInvalidLink) {
		t.Fatalf("got %v, want store error", err)
	}
}
