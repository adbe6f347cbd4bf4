package view

import (
	"sync"
	"time"
)

const DefaultInfoTTL = 5 * time.Second

type MessageKind string

const (
	KindNone  MessageKind = ""
	KindInfo  MessageKind = "info"
	KindError MessageKind = "error"
)

type Message struct {
	Kind MessageKind
	Text string
	Seq  uint64
}

func (m Message) InfoText() string {
	if m.Kind == KindInfo {
		return m.Text
	}
	return ""
}

func (m Message) ErrorText() string {
	if m.Kind == KindError {
		return m.Text
	}
	return ""
}

// MessageSlot holds the single info/error message. Showing a message replaces
// the previous one (info clears error and vice versa). Info messages clear
// themselves after ttl unless something newer has been shown.
type MessageSlot struct {
	ttl time.Duration

	mu     sync.Mutex
	cur    Message
	seq    uint64
	timer  *time.Timer
	subs   map[int]chan Message
	nextID int
	closed bool
}

func NewMessageSlot(ttl time.Duration) *MessageSlot {
	return &MessageSlot{ttl: ttl, subs: map[int]chan Message{}}
}

func (s *MessageSlot) Info(text string) Message {
	return s.show(KindInfo, text)
}

func (s *MessageSlot) Error(text string) Message {
	return s.show(KindError, text)
}

func (s *MessageSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.seq++
	s.cur = Message{Seq: s.seq}
	s.publishLocked()
}

func (s *MessageSlot) Current() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe delivers the latest message after every change. Slow readers only
// ever see the newest value.
func (s *MessageSlot) Subscribe() (<-chan Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Message, 1)
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close stops any pending auto-clear and closes subscriptions.
func (s *MessageSlot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	for id, c := range s.subs {
		delete(s.subs, id)
		close(c)
	}
	s.closed = true
}

func (s *MessageSlot) show(kind MessageKind, text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.seq++
	s.cur = Message{Kind: kind, Text: text, Seq: s.seq}
	if kind == KindInfo && s.ttl > 0 && !s.closed {
		seq := s.seq
		s.timer = time.AfterFunc(s.ttl, func() { s.expire(seq) })
	}
	s.publishLocked()
	return s.cur
}

func (s *MessageSlot) expire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Seq != seq {
		return
	}
	s.seq++
	s.cur = Message{Seq: s.seq}
	s.timer = nil
	s.publishLocked()
}

func (s *MessageSlot) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *MessageSlot) publishLocked() {
	for _, c := range s.subs {
		select {
		case <-c:
		default:
		}
		c <- s.cur
	}
}
