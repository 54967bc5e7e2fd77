package notify

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

// Action tags carried in push payloads.
const (
	ActionTaskUpdate       = "task_update"
	ActionAssignmentUpdate = "assignment_update"
)

// Payload is the per-recipient aggregation of a batch of changes. The
// name lists only fill in for the assignment owner when someone else
// moved their assignment; everyone else gets the bare action tag.
type Payload struct {
	Action            string   `json:"action"`
	CompletedByOthers []string `json:"completed_by_others,omitempty"`
	DeclinedByOthers  []string `json:"declined_by_others,omitempty"`
}

// Message pairs one registered device token with its owner's payload.
type Message struct {
	Token   model.PushToken
	Payload Payload
}

// Generator computes push messages from batches of changed task or
// assignment ids. It never sends anything itself.
type Generator struct {
	tasks       *store.TaskStore
	assignments *store.AssignmentStore
	houses      *store.HouseStore
	tokens      *store.PushTokenStore
	logger      *slog.Logger
}

func NewGenerator(taskStore *store.TaskStore, assignmentStore *store.AssignmentStore, houseStore *store.HouseStore, tokenStore *store.PushTokenStore, logger *slog.Logger) *Generator {
	return &Generator{
		tasks:       taskStore,
		assignments: assignmentStore,
		houses:      houseStore,
		tokens:      tokenStore,
		logger:      logger,
	}
}

// ForTasks builds one message per registered device of every member in
// the houses of the given tasks. A member with no tokens produces
// nothing.
func (g *Generator) ForTasks(taskIDs []int64, now time.Time) ([]Message, error) {
	payloads := make(map[int64]*Payload)
	rosters := newRosterCache(g.houses)

	for _, id := range taskIDs {
		task, err := g.tasks.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load task %d: %w", id, err)
		}
		if task == nil {
			continue
		}

		roster, err := rosters.get(task.HouseID)
		if err != nil {
			return nil, err
		}
		for _, m := range roster {
			if _, ok := payloads[m.ID]; !ok {
				payloads[m.ID] = &Payload{Action: ActionTaskUpdate}
			}
		}
	}

	return g.emit(payloads, now)
}

// ForAssignments builds one message per registered device of every
// member in the houses of the changed assignments. The owner of an
// assignment whose status was moved by somebody else additionally gets
// the task's name in the completed or declined list.
func (g *Generator) ForAssignments(assignmentIDs []int64, now time.Time) ([]Message, error) {
	payloads := make(map[int64]*Payload)
	rosters := newRosterCache(g.houses)

	for _, id := range assignmentIDs {
		a, err := g.assignments.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load assignment %d: %w", id, err)
		}
		if a == nil || a.Task == nil {
			continue
		}

		roster, err := rosters.get(a.Task.HouseID)
		if err != nil {
			return nil, err
		}
		for _, m := range roster {
			p, ok := payloads[m.ID]
			if !ok {
				p = &Payload{Action: ActionAssignmentUpdate}
				payloads[m.ID] = p
			}

			if m.ID != a.MemberID || a.ChangedBy == nil || *a.ChangedBy == a.MemberID {
				continue
			}
			switch a.Status {
			case model.ProgressDone:
				p.CompletedByOthers = append(p.CompletedByOthers, a.Task.Name)
			case model.ProgressWontDo:
				p.DeclinedByOthers = append(p.DeclinedByOthers, a.Task.Name)
			}
		}
	}

	return g.emit(payloads, now)
}

// emit resolves device tokens for all touched members and pairs each one
// with its owner's payload: at most one message per device token.
func (g *Generator) emit(payloads map[int64]*Payload, now time.Time) ([]Message, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	memberIDs := make([]int64, 0, len(payloads))
	for id := range payloads {
		memberIDs = append(memberIDs, id)
	}
	sort.Slice(memberIDs, func(i, j int) bool { return memberIDs[i] < memberIDs[j] })

	tokens, err := g.tokens.TokensForMembers(memberIDs, now)
	if err != nil {
		return nil, fmt.Errorf("resolve tokens: %w", err)
	}

	var messages []Message
	for _, t := range tokens {
		p := payloads[t.MemberID]
		if p == nil {
			continue
		}
		messages = append(messages, Message{Token: t, Payload: *p})
	}
	return messages, nil
}

// rosterCache avoids re-reading a house's roster within one generator
// invocation. No state survives the call.
type rosterCache struct {
	houses  *store.HouseStore
	entries map[int64][]model.Member
}

func newRosterCache(houses *store.HouseStore) *rosterCache {
	return &rosterCache{houses: houses, entries: make(map[int64][]model.Member)}
}

func (c *rosterCache) get(houseID int64) ([]model.Member, error) {
	if roster, ok := c.entries[houseID]; ok {
		return roster, nil
	}
	roster, err := c.houses.ListRoster(houseID)
	if err != nil {
		return nil, fmt.Errorf("load roster for house %d: %w", houseID, err)
	}
	c.entries[houseID] = roster
	return roster, nil
}
