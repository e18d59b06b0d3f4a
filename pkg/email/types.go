package email

// Mail is what request handlers hand to a Mailer. An empty To goes to the
// configured support inbox.
type Mail struct {
	To      []string `json:"to,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

// Message is a fully addressed mail as seen by a Transport.
type Message struct {
	From     string
	To       []string
	CC       []string
	BCC      []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}
