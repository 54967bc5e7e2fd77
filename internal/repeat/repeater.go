package repeat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"
)

// Repeater applies the recurrence decision to every task for one
// scheduling tick and persists the resulting assignments as one batch.
type Repeater struct {
	tasks       *store.TaskStore
	members     *store.MemberStore
	houses      *store.HouseStore
	assignments *store.AssignmentStore
	bus         *event.Bus
	logger      *slog.Logger
}

func NewRepeater(taskStore *store.TaskStore, memberStore *store.MemberStore, houseStore *store.HouseStore, assignmentStore *store.AssignmentStore, bus *event.Bus, logger *slog.Logger) *Repeater {
	return &Repeater{
		tasks:       taskStore,
		members:     memberStore,
		houses:      houseStore,
		assignments: assignmentStore,
		bus:         bus,
		logger:      logger,
	}
}

// Run evaluates every task against the snapshot read at the start of the
// tick. New assignments are inserted in a single all-or-nothing batch;
// on success an assignments-added event carries the new ids.
func (r *Repeater) Run(now time.Time) error {
	tasks, err := r.tasks.List()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	memberList, err := r.members.List()
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	members := make(map[int64]model.Member, len(memberList))
	for _, m := range memberList {
		members[m.ID] = m
	}

	houseList, err := r.houses.List()
	if err != nil {
		return fmt.Errorf("load houses: %w", err)
	}
	houses := make(map[int64]*model.House, len(houseList))
	for i := range houseList {
		houses[houseList[i].ID] = &houseList[i]
	}

	// Rosters are read at most once per house within a tick.
	rosters := make(map[int64][]model.Member)

	var batch []model.TaskAssignment
	for _, task := range tasks {
		house := houses[task.HouseID]

		roster, ok := rosters[task.HouseID]
		if !ok && house != nil {
			roster, err = r.houses.ListRoster(task.HouseID)
			if err != nil {
				return fmt.Errorf("load roster for house %d: %w", task.HouseID, err)
			}
			rosters[task.HouseID] = roster
		}

		last, err := r.assignments.MostRecentForTask(task.ID)
		if err != nil {
			return fmt.Errorf("most recent assignment for task %d: %w", task.ID, err)
		}

		if a := Decide(task, house, members, roster, last, now); a != nil {
			batch = append(batch, *a)
		}
	}

	if len(batch) == 0 {
		return nil
	}

	ids, err := r.assignments.InsertBatch(batch)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	r.logger.Info("created assignments", "count", len(ids))
	r.bus.Publish(event.Event{
		Kind:          event.KindAssignmentsAdded,
		AssignmentIDs: ids,
		At:            now,
	})
	return nil
}
