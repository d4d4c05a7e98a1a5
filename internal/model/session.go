package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one exchange entry in a session's conversation history.
// Turns are stored in insertion order and never reordered.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UploadedFile is a source document received from the client, decoupled
// from the multipart transport so services can be tested without HTTP.
type UploadedFile struct {
	Name string
	Data []byte
}
