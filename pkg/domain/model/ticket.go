package model

import (
	"sort"
	"strings"
	"time"

	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// ThreadType is the Help Scout thread type
type ThreadType string

const (
	// ThreadTypeMessage is a reply written by an agent
	ThreadTypeMessage  ThreadType = "message"
	ThreadTypeCustomer ThreadType = "customer"
	ThreadTypeNote     ThreadType = "note"
	ThreadTypeLineItem ThreadType = "lineitem"
)

// Person is the author of a thread
type Person struct {
	ID    int64
	Type  string
	First string
	Last  string
	Email string
}

// Name returns the display name of the person
func (p Person) Name() string {
	name := strings.TrimSpace(p.First + " " + p.Last)
	if name == "" {
		return p.Email
	}
	return name
}

// Thread is one entry of a conversation
type Thread struct {
	ID        int64
	Type      ThreadType
	Body      string
	CreatedAt time.Time
	CreatedBy Person
}

// Agent identifies the author of the evaluated reply
type Agent struct {
	ID   types.AgentID
	Name string
}

// Ticket is a Help Scout conversation with its threads
type Ticket struct {
	ID      types.TicketID
	Number  int64
	Subject string
	Tags    []string
	Threads []Thread
}

// LatestAgentResponse returns the newest agent reply with a non-empty body
func (t *Ticket) LatestAgentResponse() (*Thread, bool) {
	var latest *Thread
	for i := range t.Threads {
		th := &t.Threads[i]
		if th.Type != ThreadTypeMessage || strings.TrimSpace(th.Body) == "" {
			continue
		}
		if latest == nil || th.CreatedAt.After(latest.CreatedAt) {
			latest = th
		}
	}
	return latest, latest != nil
}

// ChronologicalThreads returns the threads ordered oldest first
func (t *Ticket) ChronologicalThreads() []Thread {
	threads := append([]Thread(nil), t.Threads...)
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].CreatedAt.Before(threads[j].CreatedAt)
	})
	return threads
}

// AgentOf returns the agent who wrote th
func AgentOf(th *Thread) Agent {
	return Agent{
		ID:   types.AgentID(th.CreatedBy.ID),
		Name: th.CreatedBy.Name(),
	}
}
