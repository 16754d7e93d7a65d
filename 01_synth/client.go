package synth

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"autoshorts-pipeline/types"
)

// The consumer Edge read-aloud endpoint streams two event kinds over one
// websocket: binary frames carrying audio bytes and text frames carrying
// word-boundary metadata with offsets in 100-nanosecond ticks.
const (
	edgeEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/" +
		"readaloud/edge/v1?TrustedClientToken=6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	outputFormat = "audio-24khz-48kbitrate-mono-mp3"
	ticksPerSec  = 10_000_000.0
)

// Client speaks the Edge TTS streaming protocol.
type Client struct {
	Endpoint string
	Dialer   *websocket.Dialer
}

func NewClient() *Client {
	return &Client{
		Endpoint: edgeEndpoint,
		Dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

type metadataEvent struct {
	Metadata []struct {
		Type string `json:"Type"`
		Data struct {
			Offset   float64 `json:"Offset"`
			Duration float64 `json:"Duration"`
			Text     struct {
				Text string `json:"Text"`
			} `json:"text"`
		} `json:"Data"`
	} `json:"Metadata"`
}

// Synthesize streams one utterance: audio bytes go to w, word boundaries are
// collected in order and returned in seconds.
func (c *Client) Synthesize(ctx context.Context, text, voice, rate string, w io.Writer) ([]types.WordTiming, error) {
	header := http.Header{}
	header.Set("Origin", "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold")
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	conn, resp, err := c.Dialer.DialContext(ctx, c.Endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("tts dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	ts := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
	speechConfig := fmt.Sprintf(
		"X-Timestamp:%s\r\nContent-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n"+
			`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"true"},"outputFormat":"%s"}}}}`,
		ts, outputFormat,
	)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfig)); err != nil {
		return nil, fmt.Errorf("tts config write: %w", err)
	}

	reqID := strings.ReplaceAll(uuid.NewString(), "-", "")
	ssml := fmt.Sprintf(
		"X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nX-Timestamp:%s\r\nPath:ssml\r\n\r\n"+
			"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody pitch='+0Hz' rate='%s' volume='+0%%'>%s</prosody></voice></speak>",
		reqID, ts, voice, rate, escapeXML(text),
	)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssml)); err != nil {
		return nil, fmt.Errorf("tts ssml write: %w", err)
	}

	var timings []types.WordTiming
	wroteAudio := false

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("tts stream read: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			// Two-byte big-endian header length, then headers, then payload.
			if len(msg) < 2 {
				continue
			}
			headerLen := int(binary.BigEndian.Uint16(msg[:2]))
			if len(msg) < 2+headerLen {
				continue
			}
			if !bytes.Contains(msg[:2+headerLen], []byte("Path:audio")) {
				continue
			}
			if payload := msg[2+headerLen:]; len(payload) > 0 {
				if _, err := w.Write(payload); err != nil {
					return nil, fmt.Errorf("tts audio write: %w", err)
				}
				wroteAudio = true
			}

		case websocket.TextMessage:
			headers, body, found := bytes.Cut(msg, []byte("\r\n\r\n"))
			if !found {
				continue
			}
			switch {
			case bytes.Contains(headers, []byte("Path:audio.metadata")):
				var ev metadataEvent
				if err := json.Unmarshal(body, &ev); err != nil {
					continue
				}
				for _, m := range ev.Metadata {
					if m.Type != "WordBoundary" {
						continue
					}
					start := m.Data.Offset / ticksPerSec
					timings = append(timings, types.WordTiming{
						Word:  m.Data.Text.Text,
						Start: start,
						End:   start + m.Data.Duration/ticksPerSec,
					})
				}
			case bytes.Contains(headers, []byte("Path:turn.end")):
				if !wroteAudio {
					return nil, fmt.Errorf("tts stream ended without audio")
				}
				return timings, nil
			}
		}
	}
}

func escapeXML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	).Replace(s)
}
