package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go-batch-generator/internal/model"
)

// ProgressSender is the worker side of the progress channel.
// Implementations must be safe for concurrent use by many workers.
type ProgressSender interface {
	Send(msg model.ProgressMessage) error
}

// ChanSender sends onto a Go channel shared by every worker of a phase
type ChanSender chan<- model.ProgressMessage

func (c ChanSender) Send(msg model.ProgressMessage) error {
	c <- msg
	return nil
}

// StreamSender writes messages as JSON lines, used by subprocess workers on stdout
type StreamSender struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewStreamSender(w io.Writer) *StreamSender {
	return &StreamSender{enc: json.NewEncoder(w)}
}

func (s *StreamSender) Send(msg model.ProgressMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	return nil
}

// maxMessageSize bounds one JSON line; done messages carry maps so allow headroom
const maxMessageSize = 4 << 20

// DecodeStream reads JSON-line messages from r and forwards them to sender until EOF
func DecodeStream(r io.Reader, sender ProgressSender) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)

	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg model.ProgressMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return count, fmt.Errorf("decode progress message: %w", err)
		}
		if err := sender.Send(msg); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("read progress stream: %w", err)
	}
	return count, nil
}
