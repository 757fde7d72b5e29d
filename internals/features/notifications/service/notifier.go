package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"proctorx_backend/internals/configs"
)

type Kind string

const (
	KindStarted   Kind = "started"
	KindCompleted Kind = "completed"
	KindViolation Kind = "violation"
)

// Event is one exam notification for one student.
type Event struct {
	Kind       Kind
	Email      string
	Name       string
	ExamTitle  string
	Score      *float64
	Violations int
}

func (e Event) Subject() string {
	switch e.Kind {
	case KindStarted:
		return fmt.Sprintf("Exam started: %s", e.ExamTitle)
	case KindCompleted:
		return fmt.Sprintf("Exam submitted: %s", e.ExamTitle)
	case KindViolation:
		return fmt.Sprintf("Exam attempt suspended: %s", e.ExamTitle)
	}
	return e.ExamTitle
}

func (e Event) Body() string {
	var b strings.Builder
	name := e.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	switch e.Kind {
	case KindStarted:
		fmt.Fprintf(&b, "Your attempt for %q has started. Good luck!\n", e.ExamTitle)
	case KindCompleted:
		fmt.Fprintf(&b, "Your attempt for %q was submitted.", e.ExamTitle)
		if e.Score != nil {
			fmt.Fprintf(&b, " Score: %.2f.", *e.Score)
		}
		b.WriteString("\n")
	case KindViolation:
		fmt.Fprintf(&b, "Your attempt for %q was suspended after %d proctoring violations.\n", e.ExamTitle, e.Violations)
	}
	b.WriteString("\nProctorX")
	return b.String()
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

/* =========================
   Log notifier
========================= */

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ev Event) error {
	log.Printf("[INFO] notification %s for exam %q to %s", ev.Kind, ev.ExamTitle, ev.Email)
	return nil
}

/* =========================
   Recorder (tests, memory mode)
========================= */

type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// NewFromEnv picks SendGrid when SENDGRID_API_KEY is set, the log notifier otherwise.
func NewFromEnv() Notifier {
	key := strings.TrimSpace(configs.GetEnv("SENDGRID_API_KEY"))
	if key == "" {
		log.Println("[INFO] SENDGRID_API_KEY not set, notifications are logged only")
		return LogNotifier{}
	}
	return NewSendGridNotifier(key, configs.GetEnv("MAIL_FROM", "no-reply@proctorx.app"))
}
