package line

// Outbound message payloads for the messaging API.

// TextMessage is a plain text reply.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextMessage builds a text message.
func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

// ImageMessage is a standalone image reply.
type ImageMessage struct {
	Type               string `json:"type"`
	OriginalContentURL string `json:"originalContentUrl"`
	PreviewImageURL    string `json:"previewImageUrl"`
}

// NewImageMessage builds an image message using one URL for both sizes.
func NewImageMessage(url string) ImageMessage {
	return ImageMessage{Type: "image", OriginalContentURL: url, PreviewImageURL: url}
}

// NewMessageAction builds a button that sends text on the user's behalf.
func NewMessageAction(label, text string) Action {
	return Action{Type: "message", Label: label, Text: text}
}

// TemplateMessage wraps a confirm or carousel template.
type TemplateMessage struct {
	Type     string `json:"type"`
	AltText  string `json:"altText"`
	Template any    `json:"template"`
}

// ConfirmTemplate asks a single yes/no question.
type ConfirmTemplate struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions"`
}

// CarouselTemplate carries up to ten event columns.
type CarouselTemplate struct {
	Type    string           `json:"type"`
	Columns []CarouselColumn `json:"columns"`
}

// CarouselColumn is one event card in a carousel.
type CarouselColumn struct {
	ThumbnailImageURL string   `json:"thumbnailImageUrl,omitempty"`
	Title             string   `json:"title"`
	Text              string   `json:"text"`
	Actions           []Action `json:"actions"`
}

// Action is a postback or message button.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Data  string `json:"data,omitempty"`
	Text  string `json:"text,omitempty"`
}

// NewPostbackAction builds a postback button.
func NewPostbackAction(label, data string) Action {
	return Action{Type: "postback", Label: label, Data: data}
}

// NewRsvpConfirm builds a confirm template whose buttons post back
// "rsvp:yes:<recordID>" and "rsvp:no:<recordID>".
func NewRsvpConfirm(text, eventRecordID string) TemplateMessage {
	return TemplateMessage{
		Type:    "template",
		AltText: text,
		Template: ConfirmTemplate{
			Type: "confirm",
			Text: text,
			Actions: []Action{
				NewPostbackAction("参加する", "rsvp:yes:"+eventRecordID),
				NewPostbackAction("不参加", "rsvp:no:"+eventRecordID),
			},
		},
	}
}
