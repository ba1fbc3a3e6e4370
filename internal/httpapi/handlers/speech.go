package handlers

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recallhq/videoindex/internal/common"
)

const maxAudioUpload = 25 << 20 // provider-side cap

// Transcribe accepts a recorded audio file as multipart form data and returns
// the recognized text.
func (h *Handler) Transcribe(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "audio file required")
		return
	}
	defer file.Close()

	if header.Size > maxAudioUpload {
		common.Fail(c, http.StatusRequestEntityTooLarge, 10005, "audio file too large")
		return
	}
	audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "failed to read audio")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	text, err := h.Speech.Transcribe(c.Request.Context(), audio, mimeType)
	if err != nil {
		log.Printf("transcription failed: %v", err)
		common.Fail(c, http.StatusBadGateway, 50204, "transcription failed")
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		common.Fail(c, http.StatusUnprocessableEntity, 42202, "no speech detected")
		return
	}
	common.OK(c, gin.H{"text": text})
}

type speakReq struct {
	Text string `json:"text" binding:"required"`
}

// Speak synthesizes text and streams the audio back as-is.
func (h *Handler) Speak(c *gin.Context) {
	var req speakReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	audio, err := h.Speech.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		log.Printf("synthesis failed: %v", err)
		common.Fail(c, http.StatusBadGateway, 50205, "synthesis failed")
		return
	}
	defer audio.Close()

	c.Header("Content-Type", "audio/mpeg")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, audio); err != nil {
		// Headers are gone; nothing left to do but log.
		log.Printf("audio stream aborted: %v", err)
	}
}
