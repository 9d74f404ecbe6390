package availability

import "github.com/Alijeyrad/mentorbook_backend/pkg/apperr"

var (
	ErrInvalidSlots    = apperr.Validation("VALIDATION_ERROR", "availability must be a non-empty array of slots")
	ErrInvalidDay      = apperr.Validation("INVALID_DAY_OF_WEEK", "dayOfWeek must be integer 0-6")
	ErrInvalidTime     = apperr.Validation("INVALID_TIME", "time must be HH:MM between 00:00 and 23:59")
	ErrInvalidRange    = apperr.Validation("INVALID_TIME_RANGE", "startTime must be before endTime")
	ErrNothingToUpdate = apperr.Validation("NOTHING_TO_UPDATE", "Nothing to update")
	ErrSlotNotFound    = apperr.NotFound("SLOT_NOT_FOUND", "availability slot not found")
	ErrNotSlotOwner    = apperr.Forbidden("FORBIDDEN", "you do not own this availability slot")
	ErrMentorOnly      = apperr.Forbidden("FORBIDDEN", "only mentors can manage availability")
)
