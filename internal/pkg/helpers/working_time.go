package helpers

import "time"

// IndividualEndDate returns start + workingTimeSeconds when an override is set, otherwise the shared end date.
// A nil result means the exam timing is undefined.
func IndividualEndDate(start, end *time.Time, workingTimeSeconds *int) *time.Time {
	if workingTimeSeconds == nil {
		if end == nil {
			return nil
		}
		t := *end
		return &t
	}
	if start == nil {
		return nil
	}
	t := start.Add(time.Duration(*workingTimeSeconds) * time.Second)
	return &t
}

// IndividualEndDateWithGracePeriod adds gracePeriodSeconds (0 when unset) to the individual end date
func IndividualEndDateWithGracePeriod(start, end *time.Time, workingTimeSeconds, gracePeriodSeconds *int) *time.Time {
	individualEnd := IndividualEndDate(start, end, workingTimeSeconds)
	if individualEnd == nil {
		return nil
	}
	grace := 0
	if gracePeriodSeconds != nil {
		grace = *gracePeriodSeconds
	}
	t := individualEnd.Add(time.Duration(grace) * time.Second)
	return &t
}
