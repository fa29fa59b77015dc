package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/client"
	"github.com/m04kA/SMC-DetailingService/pkg/client/store"
)

// render печатает расписание по дням с бронированиями под слотами
func render(out io.Writer, st store.State) {
	fmt.Fprintf(out, "Расписание %s .. %s\n", st.Schedule.StartDate, st.Schedule.EndDate)
	if len(st.Schedule.Days) == 0 {
		fmt.Fprintln(out, "  слотов нет")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, day := range st.Schedule.Days {
		fmt.Fprintf(tw, "\n%s\n", dayTitle(day.Date))
		if len(day.Slots) == 0 {
			fmt.Fprintln(tw, "  выходной")
			continue
		}
		for _, slot := range day.Slots {
			fmt.Fprintf(tw, "  %s-%s\t%d/%d\t%s\n", slot.StartTime, slot.EndTime, slot.CurrentBookings, slot.MaxBookings, slotState(slot))
			for _, b := range store.BookingsForSlot(st, slot.SlotKey) {
				fmt.Fprintf(tw, "    %s\t%s\t%s\n", b.Reference, b.Status, bookingLine(b))
			}
		}
	}
	_ = tw.Flush()
}

func dayTitle(date string) string {
	d, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %s", date, d.Weekday().String()[:3])
}

func slotState(slot *client.Slot) string {
	switch {
	case slot.IsBlocked:
		if slot.BlockReason != nil && *slot.BlockReason != "" {
			return "закрыт: " + *slot.BlockReason
		}
		return "закрыт"
	case slot.IsLocked:
		return "оформляется"
	case slot.Remaining == 0:
		return "занят"
	default:
		return "свободен"
	}
}

func bookingLine(b client.Booking) string {
	line := b.Customer.Name
	if b.Vehicle.Registration != "" {
		line += " / " + b.Vehicle.Registration
	}
	if b.ServiceName != "" {
		line += " / " + b.ServiceName
	}
	return line
}
