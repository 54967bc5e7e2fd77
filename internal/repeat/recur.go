package repeat

import (
	"sort"
	"time"

	"github.com/dukerupert/tuckborough/internal/model"
)

// lookAhead bounds how far into the future an assignment may be
// pre-created. Anything due later than this past the run time waits for
// a later tick.
const lookAhead = 7 * 24 * time.Hour

// Decide determines whether a task is owed a new assignment at the given
// run time. It returns nil when nothing should be created. The function
// is pure: identical inputs always yield the identical decision.
//
// members is the full member snapshot keyed by id; roster is the task's
// house roster (rotation order is by name ascending, enforced here).
func Decide(task model.Task, house *model.House, members map[int64]model.Member, roster []model.Member, last *model.TaskAssignment, now time.Time) *model.TaskAssignment {
	if !task.Active {
		return nil
	}
	if house == nil || (house.Status != model.HouseStatusActive && house.Status != model.HouseStatusPaused) {
		return nil
	}
	if _, ok := members[task.AssigneeID]; !ok {
		return nil
	}

	status := model.ProgressTodo
	if house.Status == model.HouseStatusPaused {
		status = model.ProgressWontDo
	}

	// First occurrence: due at the task's stored due date.
	if last == nil {
		if task.RepeatEndAt != nil && task.RepeatEndAt.Before(task.DueAt) {
			return nil
		}
		return &model.TaskAssignment{
			TaskID:     task.ID,
			MemberID:   task.AssigneeID,
			Status:     status,
			StatusAt:   now,
			DueAt:      task.DueAt.Truncate(time.Second),
			CreateType: model.CreateAuto,
			CreatedAt:  now,
		}
	}

	nextDue, ok := nextDueDate(task, last, now)
	if !ok {
		return nil
	}
	if !canAdd(task, nextDue, now) {
		return nil
	}

	return &model.TaskAssignment{
		TaskID:     task.ID,
		MemberID:   pickAssignee(task, roster, last),
		Status:     status,
		StatusAt:   now,
		DueAt:      nextDue.Truncate(time.Second),
		CreateType: model.CreateAuto,
		CreatedAt:  now,
	}
}

// nextDueDate computes the due date of the next occurrence after the most
// recent assignment. Calendar-aware: month and year steps respect
// variable month lengths.
func nextDueDate(task model.Task, last *model.TaskAssignment, now time.Time) (time.Time, bool) {
	switch task.RepeatUnit {
	case model.RepeatHour:
		return last.DueAt.Add(time.Duration(task.RepeatValue) * time.Hour), true
	case model.RepeatDay:
		return last.DueAt.AddDate(0, 0, task.RepeatValue), true
	case model.RepeatWeek:
		return last.DueAt.AddDate(0, 0, 7*task.RepeatValue), true
	case model.RepeatMonth:
		return last.DueAt.AddDate(0, task.RepeatValue, 0), true
	case model.RepeatYear:
		return last.DueAt.AddDate(task.RepeatValue, 0, 0), true
	case model.RepeatOnComplete:
		// Due immediately, but only once the previous occurrence is done.
		if last.Status != model.ProgressDone {
			return time.Time{}, false
		}
		return now, true
	default:
		// RepeatNone and anything unrecognized never recurs.
		return time.Time{}, false
	}
}

// canAdd gates a computed due date: inside the recurrence cutoff, and
// either already due (catching up missed runs) or within the look-ahead
// window.
func canAdd(task model.Task, nextDue, now time.Time) bool {
	if task.RepeatEndAt != nil && nextDue.After(*task.RepeatEndAt) {
		return false
	}
	if task.RepeatUnit == model.RepeatOnComplete {
		return true
	}
	if !nextDue.After(now) {
		return true
	}
	return nextDue.Sub(now) <= lookAhead
}

// pickAssignee selects the member for the next occurrence. Rotating tasks
// walk the roster in name order, cyclically after the previous assignee;
// a previous assignee no longer on the roster restarts rotation at the
// front.
func pickAssignee(task model.Task, roster []model.Member, last *model.TaskAssignment) int64 {
	if !task.RotateMember || len(roster) == 0 {
		return task.AssigneeID
	}

	ordered := make([]model.Member, len(roster))
	copy(ordered, roster)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	for i, m := range ordered {
		if m.ID == last.MemberID {
			return ordered[(i+1)%len(ordered)].ID
		}
	}
	return ordered[0].ID
}
