package domain

import (
	"fmt"
	"strings"
)

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
)

var validStatuses = []string{StatusOpen, StatusInProgress, StatusDone, StatusCancelled}

var validPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ValidStatus reports whether s is one of the enumerated task statuses.
func ValidStatus(s string) bool {
	for _, v := range validStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is one of the enumerated priorities.
func ValidPriority(p string) bool {
	for _, v := range validPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// ValidateNewTask checks a task about to be persisted for the first time.
// Defaults for status/priority must already be applied by the caller.
func ValidateNewTask(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > MaxTitleLen {
		return fmt.Errorf("title cannot exceed %d characters", MaxTitleLen)
	}
	if len(t.Description) > MaxDescriptionLen {
		return fmt.Errorf("description cannot exceed %d characters", MaxDescriptionLen)
	}
	if !ValidStatus(t.Status) {
		return fmt.Errorf("status must be one of: %s", strings.Join(validStatuses, ", "))
	}
	if !ValidPriority(t.Priority) {
		return fmt.Errorf("priority must be one of: %s", strings.Join(validPriorities, ", "))
	}
	return nil
}

// ValidatePatch checks only the fields present in a partial update.
func ValidatePatch(p TaskPatch) error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return fmt.Errorf("title cannot be empty")
		}
		if len(*p.Title) > MaxTitleLen {
			return fmt.Errorf("title cannot exceed %d characters", MaxTitleLen)
		}
	}
	if p.Description != nil && len(*p.Description) > MaxDescriptionLen {
		return fmt.Errorf("description cannot exceed %d characters", MaxDescriptionLen)
	}
	if p.Status != nil && !ValidStatus(*p.Status) {
		return fmt.Errorf("status must be one of: %s", strings.Join(validStatuses, ", "))
	}
	if p.Priority != nil && !ValidPriority(*p.Priority) {
		return fmt.Errorf("priority must be one of: %s", strings.Join(validPriorities, ", "))
	}
	// Empty assigned_to is allowed: it clears the assignment.
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil && p.AssignedTo == nil
}
