package venues

import "fmt"

// SlotKey builds the canonical identifier for one bookable court slot.
// date is YYYY-MM-DD, start is HH:MM in the venue's local time.
// Every layer that touches slots (availability listing, holds, confirmed
// bookings) agrees on this format.
func SlotKey(courtID, date, start string) string {
	return fmt.Sprintf("%s:%s:%s", courtID, date, start)
}

// SlotTimes expands a court's daily grid into (start, end) pairs.
func SlotTimes(court *Court) [][2]string {
	var out [][2]string
	minutes := court.OpenHour * 60
	closeMinutes := court.CloseHour * 60
	for minutes+court.SlotMinutes <= closeMinutes {
		start := fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
		endM := minutes + court.SlotMinutes
		end := fmt.Sprintf("%02d:%02d", endM/60, endM%60)
		out = append(out, [2]string{start, end})
		minutes = endM
	}
	return out
}
