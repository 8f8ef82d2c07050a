package queue

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testEvent() PaymentReceivedEvent {
	return PaymentReceivedEvent{
		PaymentID:   7,
		UserID:      42,
		UserName:    "Dr. Test",
		UserPhone:   "+998901234567",
		UserRole:    "doctor",
		PlanName:    "Pro",
		Amount:      99000,
		SubmittedAt: "2026-08-29T10:00:00Z",
	}
}

// capturedRequest holds what the stub Telegram endpoint received.
type capturedRequest struct {
	path  string
	form  map[string]string
	photo []byte
}

func telegramStub(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.form = map[string]string{}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			for k, v := range r.MultipartForm.Value {
				if len(v) > 0 {
					captured.form[k] = v[0]
				}
			}
			if files := r.MultipartForm.File["photo"]; len(files) > 0 {
				f, err := files[0].Open()
				if err != nil {
					t.Errorf("open photo part: %v", err)
				} else {
					captured.photo, _ = io.ReadAll(f)
					f.Close()
				}
			}
		} else {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			for k, v := range r.PostForm {
				if len(v) > 0 {
					captured.form[k] = v[0]
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
}

func withTelegramStub(t *testing.T, captured *capturedRequest) {
	t.Helper()
	srv := telegramStub(t, captured)
	prev := telegramAPIBase
	telegramAPIBase = srv.URL
	t.Cleanup(func() {
		telegramAPIBase = prev
		srv.Close()
	})
}

func TestHandleMessageForwardsReceiptPhoto(t *testing.T) {
	var captured capturedRequest
	withTelegramStub(t, &captured)

	image := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02, 0x03}
	ev := testEvent()
	ev.ReceiptImage = image
	ev.ReceiptName = "check.jpg"
	ev.ReceiptMIME = "image/jpeg"

	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := handleMessage(body, "bot-token", "-100123"); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	if !strings.HasSuffix(captured.path, "/sendPhoto") {
		t.Fatalf("path = %q, want sendPhoto for an event carrying an image", captured.path)
	}
	if !bytes.Equal(captured.photo, image) {
		t.Fatalf("photo bytes = %v, want the uploaded receipt %v", captured.photo, image)
	}
	if captured.form["chat_id"] != "-100123" {
		t.Errorf("chat_id = %q, want -100123", captured.form["chat_id"])
	}
	caption := captured.form["caption"]
	for _, want := range []string{"Dr. Test", "+998901234567", "Pro"} {
		if !strings.Contains(caption, want) {
			t.Errorf("caption %q missing %q", caption, want)
		}
	}
}

func TestHandleMessageWithoutImageFallsBackToText(t *testing.T) {
	var captured capturedRequest
	withTelegramStub(t, &captured)

	body, err := json.Marshal(testEvent())
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := handleMessage(body, "bot-token", "-100123"); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if !strings.HasSuffix(captured.path, "/sendMessage") {
		t.Fatalf("path = %q, want sendMessage fallback", captured.path)
	}
	if !strings.Contains(captured.form["text"], "Dr. Test") {
		t.Errorf("text %q missing user name", captured.form["text"])
	}
}

func TestHandleMessageRejectsMalformedBody(t *testing.T) {
	if err := handleMessage([]byte("not json"), "bot-token", "-100123"); err == nil {
		t.Fatal("expected error for malformed event body")
	}
}

func TestPhotoFormDefaultsFilename(t *testing.T) {
	ev := PaymentReceivedEvent{ReceiptImage: []byte{1, 2, 3}}
	body, contentType, err := photoForm("-100123", "caption", ev)
	if err != nil {
		t.Fatalf("photoForm: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Fatalf("content type = %q, want multipart", contentType)
	}
	if !strings.Contains(body.String(), `filename="receipt.jpg"`) {
		t.Fatal("missing default filename for unnamed uploads")
	}
}
