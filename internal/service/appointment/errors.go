package appointment

import "github.com/Alijeyrad/mentorbook_backend/pkg/apperr"

var (
	ErrInvalidTimes    = apperr.Validation("VALIDATION_ERROR", "Invalid date format for startsAt or endsAt")
	ErrEndsBeforeStart = apperr.Validation("VALIDATION_ERROR", "endsAt must be after startsAt")
	ErrSelfBooking     = apperr.Validation("VALIDATION_ERROR", "You cannot book an appointment with yourself")
	ErrInvalidStatus   = apperr.Validation("INVALID_STATUS", "status must be one of PENDING, CONFIRMED, CANCELLED, COMPLETED")
	ErrInvalidMeeting  = apperr.Validation("VALIDATION_ERROR", "meeting id and joinUrl are required")
	ErrInPast          = apperr.BadRequest("BOOKING_IN_PAST", "Cannot book appointments in the past")

	ErrNotWithinAvailability = apperr.Validation("NOT_WITHIN_AVAILABILITY", "Requested time is not within mentor's availability")

	ErrOnlyStudents   = apperr.Forbidden("FORBIDDEN", "Only students can create appointments")
	ErrCannotList     = apperr.Forbidden("FORBIDDEN", "You are not allowed to list appointments")
	ErrCannotView     = apperr.Forbidden("FORBIDDEN", "You are not allowed to view this appointment")
	ErrCannotCancel   = apperr.Forbidden("FORBIDDEN", "You cannot cancel this appointment")
	ErrNotMentorParty = apperr.Forbidden("FORBIDDEN", "Only the mentor or an admin can do this")

	ErrNotFound        = apperr.NotFound("APPOINTMENT_NOT_FOUND", "Appointment not found")
	ErrMentorNotFound  = apperr.NotFound("MENTOR_NOT_FOUND", "Mentor not found")
	ErrStudentNotFound = apperr.NotFound("STUDENT_NOT_FOUND", "Student not found")

	ErrMentorBusy              = apperr.Conflict("MENTOR_BUSY", "Mentor already has an appointment at this time")
	ErrStudentBusy             = apperr.Conflict("STUDENT_BUSY", "You already have an appointment at this time")
	ErrOnlyPendingConfirm      = apperr.Conflict("ONLY_PENDING_CONFIRM", "Only pending appointments can be confirmed")
	ErrAlreadyFinalised        = apperr.Conflict("APPOINTMENT_FINAL", "Appointment is already finalised")
	ErrCancelledCannotComplete = apperr.Conflict("INVALID_STATE", "Cancelled appointment cannot be completed")
	ErrOnlyConfirmedComplete   = apperr.Conflict("ONLY_CONFIRMED_COMPLETE", "Only confirmed appointments can be completed")
	ErrNotActive               = apperr.Conflict("INVALID_STATE", "Meeting details can only be set on pending or confirmed appointments")
	ErrConcurrentUpdate        = apperr.Conflict("CONCURRENT_UPDATE", "Appointment is being modified, please retry")
)
