package chat

import (
	"strings"
	"testing"
)

func TestPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		payload Payload
		wantErr bool
	}{
		{"valid text", TypeText, Payload{Text: &TextPayload{Body: "Salut"}}, false},
		{"text at max length", TypeText, Payload{Text: &TextPayload{Body: strings.Repeat("a", 1000)}}, false},
		{"text empty", TypeText, Payload{Text: &TextPayload{Body: ""}}, true},
		{"text over max", TypeText, Payload{Text: &TextPayload{Body: strings.Repeat("a", 1001)}}, true},
		{"text missing payload", TypeText, Payload{}, true},
		{"valid image", TypeImage, Payload{Image: &AttachmentPayload{URL: "https://cdn/img.jpg"}}, false},
		{"image missing url", TypeImage, Payload{Image: &AttachmentPayload{Caption: "fara url"}}, true},
		{"valid file", TypeFile, Payload{File: &AttachmentPayload{URL: "https://cdn/doc.pdf"}}, false},
		{"valid location", TypeLocation, Payload{Location: &LocationPayload{Lat: 44.43, Lng: 26.1}}, false},
		{"location lat out of range", TypeLocation, Payload{Location: &LocationPayload{Lat: 91, Lng: 0}}, true},
		{"location lng out of range", TypeLocation, Payload{Location: &LocationPayload{Lat: 0, Lng: -181}}, true},
		{"unknown type", MessageType("VOICE"), Payload{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate(tt.msgType, 1000)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"text body", Message{Type: TypeText, Payload: Payload{Text: &TextPayload{Body: "Pe mâine!"}}}, "Pe mâine!"},
		{"image with caption", Message{Type: TypeImage, Payload: Payload{Image: &AttachmentPayload{URL: "u", Caption: "poza"}}}, "poza"},
		{"image without caption", Message{Type: TypeImage, Payload: Payload{Image: &AttachmentPayload{URL: "u"}}}, "[imagine]"},
		{"file without caption", Message{Type: TypeFile, Payload: Payload{File: &AttachmentPayload{URL: "u"}}}, "[fișier]"},
		{"location with label", Message{Type: TypeLocation, Payload: Payload{Location: &LocationPayload{Label: "Piața Unirii"}}}, "Piața Unirii"},
		{"location without label", Message{Type: TypeLocation, Payload: Payload{Location: &LocationPayload{}}}, "[locație]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Preview(); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}
