package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/matzehuels/orgchart/pkg/render/svg"
	"github.com/matzehuels/orgchart/pkg/scene"
)

// handleFrames streams the session's frames as server-sent events. Each
// event is one frame in the JSON format of /chart.json.
func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	frames, stop := sess.Subscribe()
	defer stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case f, ok := <-frames:
			if !ok {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			if err := writeFrame(w, f); err != nil {
				s.logger.Debug("frame stream ended", "session", sess.ID, "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrame(w io.Writer, f scene.Frame) error {
	data, err := svg.RenderJSON(f)
	if err != nil {
		return err
	}
	// One event per line: data fields cannot span lines.
	var line bytes.Buffer
	if err := json.Compact(&line, data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: frame\ndata: %s\n\n", line.Bytes())
	return err
}
