package history

import (
	"testing"
)

func TestRecord(t *testing.T) {
	t.Run("CreatesMissingLevels", func(t *testing.T) {
		rec := New()
		rec.Record(10, "weekday", "dinner", "Pasta")

		items := rec.Items(10, "weekday", "dinner")
		if len(items) != 1 || items[0] != "Pasta" {
			t.Errorf("Expected [Pasta], got %v", items)
		}
	})

	t.Run("AppendsInOrder", func(t *testing.T) {
		rec := New()
		rec.Record(10, "weekday", "dinner", "Pasta")
		rec.Record(10, "weekday", "dinner", "Soup")
		rec.Record(10, "weekday", "dinner", "Pasta")

		items := rec.Items(10, "weekday", "dinner")
		if len(items) != 3 {
			t.Fatalf("Expected 3 items, got %d", len(items))
		}
		if items[len(items)-1] != "Pasta" {
			t.Errorf("Expected last item 'Pasta', got '%s'", items[len(items)-1])
		}
	})

	t.Run("KeepsSiblings", func(t *testing.T) {
		rec := New()
		rec.Record(10, "weekday", "dinner", "Pasta")
		rec.Record(10, "weekday", "lunch", "Salad")
		rec.Record(10, "weekend", "brunch", "Eggs")

		if len(rec[10]) != 2 {
			t.Errorf("Expected 2 periods, got %d", len(rec[10]))
		}
		if len(rec[10]["weekday"]) != 2 {
			t.Errorf("Expected 2 weekday categories, got %d", len(rec[10]["weekday"]))
		}
	})
}

func TestRecentItems(t *testing.T) {
	t.Run("ZeroLookback", func(t *testing.T) {
		rec := New()
		rec.Record(10, "weekday", "dinner", "Pasta")

		if got := rec.RecentItems("dinner", 10, 0); len(got) != 0 {
			t.Errorf("Expected empty set, got %v", got)
		}
	})

	t.Run("NegativeLookback", func(t *testing.T) {
		rec := New()
		rec.Record(10, "weekday", "dinner", "Pasta")

		if got := rec.RecentItems("dinner", 10, -1); len(got) != 0 {
			t.Errorf("Expected empty set, got %v", got)
		}
	})

	t.Run("OldestWeekInWindow", func(t *testing.T) {
		// Window for lookback 4 at week 20 is 16..20.
		rec := New()
		rec.Record(16, "weekday", "dinner", "Pasta")

		got := rec.RecentItems("dinner", 20, 4)
		if _, ok := got["Pasta"]; !ok {
			t.Errorf("Expected 'Pasta' from week 16 to be recent, got %v", got)
		}
	})

	t.Run("OneWeekTooOld", func(t *testing.T) {
		rec := New()
		rec.Record(15, "weekday", "dinner", "Pasta")

		if got := rec.RecentItems("dinner", 20, 4); len(got) != 0 {
			t.Errorf("Expected week 15 to be outside the window, got %v", got)
		}
	})

	t.Run("CurrentWeekCounts", func(t *testing.T) {
		rec := New()
		rec.Record(20, "weekend", "dinner", "Curry")

		if _, ok := rec.RecentItems("dinner", 20, 1)["Curry"]; !ok {
			t.Error("Expected the planned week's own picks to be recent")
		}
	})

	t.Run("LookbackOneCoversLastWeek", func(t *testing.T) {
		rec := New()
		rec.Record(19, "weekday", "dinner", "Pasta")
		rec.Record(18, "weekday", "dinner", "Risotto")

		got := rec.RecentItems("dinner", 20, 1)
		if _, ok := got["Pasta"]; !ok || len(got) != 1 {
			t.Errorf("Expected only last week's 'Pasta', got %v", got)
		}
	})

	t.Run("FutureWeeksIgnored", func(t *testing.T) {
		rec := New()
		rec.Record(21, "weekday", "dinner", "Pasta")

		if got := rec.RecentItems("dinner", 20, 4); len(got) != 0 {
			t.Errorf("Expected week 21 to be ignored, got %v", got)
		}
	})

	t.Run("ScansAllPeriods", func(t *testing.T) {
		rec := New()
		rec.Record(19, "weekday", "dinner", "Pasta")
		rec.Record(20, "weekend", "dinner", "Curry")
		rec.Record(20, "weekend", "brunch", "Eggs")

		got := rec.RecentItems("dinner", 20, 2)
		if len(got) != 2 {
			t.Fatalf("Expected 2 recent dinners, got %v", got)
		}
		for _, want := range []string{"Pasta", "Curry"} {
			if _, ok := got[want]; !ok {
				t.Errorf("Expected '%s' in recent set", want)
			}
		}
	})

	t.Run("NilRecord", func(t *testing.T) {
		var rec Record
		if got := rec.RecentItems("dinner", 20, 4); len(got) != 0 {
			t.Errorf("Expected empty set, got %v", got)
		}
	})
}

func TestCloneAndEqual(t *testing.T) {
	rec := New()
	rec.Record(1, "weekday", "dinner", "Pasta")
	rec.Record(2, "weekend", "brunch", "Eggs")

	cp := rec.Clone()
	if !Equal(rec, cp) {
		t.Fatal("Expected clone to equal original")
	}

	cp.Record(1, "weekday", "dinner", "Soup")
	if Equal(rec, cp) {
		t.Error("Expected clone to be independent of original")
	}
	if len(rec.Items(1, "weekday", "dinner")) != 1 {
		t.Error("Original was mutated through clone")
	}

	t.Run("IgnoresEmptyLevels", func(t *testing.T) {
		withEmpty := Record{3: Periods{"weekday": Categories{"dinner": nil}}}
		if !Equal(withEmpty, New()) {
			t.Error("Expected record with only empty sequences to equal empty record")
		}
	})
}

func TestWeeksAndClear(t *testing.T) {
	rec := New()
	rec.Record(5, "weekday", "dinner", "Pasta")
	rec.Record(2, "weekday", "dinner", "Soup")
	rec.Record(9, "weekday", "dinner", "Curry")

	weeks := rec.Weeks()
	if len(weeks) != 3 || weeks[0] != 2 || weeks[1] != 5 || weeks[2] != 9 {
		t.Errorf("Expected weeks [2 5 9], got %v", weeks)
	}

	rec.Clear()
	if len(rec) != 0 {
		t.Errorf("Expected empty record after Clear, got %d weeks", len(rec))
	}
}
