package tgui

import (
	"strconv"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestGridSplitsIntoColumns(t *testing.T) {
	t.Parallel()

	// 18 buttons, the size of the hour picker.
	btns := make([]tele.Btn, 0, 18)
	for h := 6; h <= 23; h++ {
		btns = append(btns, Btn(strconv.Itoa(h), Data("add", "time", strconv.Itoa(h))))
	}

	rm := Grid(3, btns)
	rows := rm.InlineKeyboard
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			t.Fatalf("row %d has %d buttons, want 3", i, len(row))
		}
	}
	if rows[0][0].Text != "6" {
		t.Fatalf("first button = %q", rows[0][0].Text)
	}
}

func TestGridDefaultsColumns(t *testing.T) {
	t.Parallel()
	rm := Grid(0, []tele.Btn{Btn("a", "x:a"), Btn("b", "x:b"), Btn("c", "x:c")})
	rows := rm.InlineKeyboard
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("unexpected layout: %d rows", len(rows))
	}
}
