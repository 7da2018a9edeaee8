package playoff

import (
	"errors"
	"testing"

	"github.com/derekprior/fixtures/internal/fixture"
	"github.com/derekprior/fixtures/internal/standings"
)

func ranked(teams ...fixture.TeamID) []standings.Standing {
	rows := make([]standings.Standing, len(teams))
	for i, t := range teams {
		rows[i] = standings.Standing{Team: t}
	}
	return rows
}

func TestSuperLeagueBracket(t *testing.T) {
	b, err := Build(Tables{"": ranked("Lions", "Tigers", "Bears", "Wolves", "Hawks")}, SuperLeague())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	t.Run("positions resolved at build time", func(t *testing.T) {
		q1, _ := b.Fixture(SlotQualifier1)
		if q1.Home != "Lions" || q1.Away != "Tigers" {
			t.Errorf("Qualifier 1 = %s v %s, want Lions v Tigers", q1.Home, q1.Away)
		}
		el, _ := b.Fixture(SlotEliminator)
		if el.Home != "Bears" || el.Away != "Wolves" {
			t.Errorf("Eliminator = %s v %s, want Bears v Wolves", el.Home, el.Away)
		}
	})

	t.Run("dependencies pending", func(t *testing.T) {
		q2, _ := b.Fixture(SlotQualifier2)
		if q2.Resolved() || len(q2.Pending()) != 2 {
			t.Errorf("Qualifier 2 pending = %v, want two dependencies", q2.Pending())
		}
		if got := len(b.Ready()); got != 2 {
			t.Errorf("Ready() = %d rounds, want 2", got)
		}
	})

	t.Run("results resolve later slots", func(t *testing.T) {
		resolved, err := b.Record(SlotQualifier1, "Tigers")
		if err != nil {
			t.Fatalf("Record(Q1) error: %v", err)
		}
		if len(resolved) != 0 {
			t.Errorf("Q1 alone resolved %d slots, want 0", len(resolved))
		}
		q2, _ := b.Fixture(SlotQualifier2)
		if q2.Home != "Lions" || q2.Away != "" {
			t.Errorf("Qualifier 2 = %q v %q, want Lions v pending", q2.Home, q2.Away)
		}
		final, _ := b.Fixture(SlotFinal)
		if final.Home != "Tigers" {
			t.Errorf("Final home = %q, want Tigers", final.Home)
		}

		resolved, err = b.Record(SlotEliminator, "Wolves")
		if err != nil {
			t.Fatalf("Record(Eliminator) error: %v", err)
		}
		if len(resolved) != 1 || resolved[0].Slot.Name != SlotQualifier2 {
			t.Fatalf("Eliminator resolved %v, want Qualifier 2", resolved)
		}
		if resolved[0].Away != "Wolves" {
			t.Errorf("Qualifier 2 away = %s, want Wolves", resolved[0].Away)
		}

		ready := b.Ready()
		if len(ready) != 1 || ready[0].Matches[0].Stage != fixture.StageQualifier2 {
			t.Fatalf("Ready() = %v, want Qualifier 2 only", ready)
		}

		resolved, err = b.Record(SlotQualifier2, "Lions")
		if err != nil {
			t.Fatalf("Record(Q2) error: %v", err)
		}
		if len(resolved) != 1 || resolved[0].Home != "Tigers" || resolved[0].Away != "Lions" {
			t.Fatalf("Final = %v, want Tigers v Lions", resolved)
		}

		if _, ok := b.Champion(); ok {
			t.Error("champion reported before the final")
		}
		if _, err := b.Record(SlotFinal, "Lions"); err != nil {
			t.Fatalf("Record(Final) error: %v", err)
		}
		if champ, ok := b.Champion(); !ok || champ != "Lions" {
			t.Errorf("Champion() = %s, %v, want Lions", champ, ok)
		}
		if len(b.Ready()) != 0 {
			t.Error("Ready() should be empty once every slot is played")
		}
	})
}

func TestRecordErrors(t *testing.T) {
	b, err := Build(Tables{"": ranked("A", "B", "C", "D")}, SuperLeague())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		slot   string
		winner fixture.TeamID
	}{
		{"unknown slot", "Third Place", "A"},
		{"unresolved slot", SlotFinal, "A"},
		{"winner not in slot", SlotQualifier1, "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.Record(tt.slot, tt.winner); !errors.Is(err, fixture.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}

	t.Run("result recorded twice", func(t *testing.T) {
		if _, err := b.Record(SlotQualifier1, "A"); err != nil {
			t.Fatal(err)
		}
		if _, err := b.Record(SlotQualifier1, "B"); !errors.Is(err, fixture.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestBuildErrors(t *testing.T) {
	t.Run("too few ranked teams", func(t *testing.T) {
		_, err := Build(Tables{"": ranked("A", "B", "C")}, SuperLeague())
		if !errors.Is(err, fixture.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("missing group", func(t *testing.T) {
		tmpl, _ := SemiFinals([]string{"X", "Y"})
		_, err := Build(Tables{"X": ranked("A", "B")}, tmpl)
		if !errors.Is(err, fixture.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestTemplateValidate(t *testing.T) {
	tests := []struct {
		name string
		tmpl Template
	}{
		{"forward dependency", Template{
			{Name: "F", Home: WinnerOf("S1"), Away: Position(1)},
			{Name: "S1", Home: Position(2), Away: Position(3)},
		}},
		{"duplicate name", Template{
			{Name: "S", Home: Position(1), Away: Position(2)},
			{Name: "S", Home: Position(3), Away: Position(4)},
		}},
		{"zero position", Template{{Name: "S", Home: Position(0), Away: Position(1)}}},
		{"same side twice", Template{{Name: "S", Home: Position(1), Away: Position(1)}}},
		{"missing name", Template{{Home: Position(1), Away: Position(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tmpl.Validate(); !errors.Is(err, fixture.ErrConfiguration) {
				t.Errorf("Validate() = %v, want ErrConfiguration", err)
			}
		})
	}
	if err := SuperLeague().Validate(); err != nil {
		t.Errorf("SuperLeague().Validate() = %v", err)
	}
}

func TestSemiFinals(t *testing.T) {
	t.Run("two groups cross over", func(t *testing.T) {
		tmpl, err := SemiFinals([]string{"X", "Y"})
		if err != nil {
			t.Fatal(err)
		}
		b, err := Build(Tables{"X": ranked("X1", "X2", "X3"), "Y": ranked("Y1", "Y2", "Y3")}, tmpl)
		if err != nil {
			t.Fatal(err)
		}
		sf1, _ := b.Fixture(SlotSemiFinal1)
		sf2, _ := b.Fixture(SlotSemiFinal2)
		if sf1.Home != "X1" || sf1.Away != "Y2" || sf2.Home != "Y1" || sf2.Away != "X2" {
			t.Errorf("semis = %s v %s, %s v %s", sf1.Home, sf1.Away, sf2.Home, sf2.Away)
		}
	})

	t.Run("one group", func(t *testing.T) {
		tmpl, err := SemiFinals([]string{"S"})
		if err != nil {
			t.Fatal(err)
		}
		if tmpl[0].Home != GroupPosition("S", 1) || tmpl[0].Away != GroupPosition("S", 4) {
			t.Errorf("first semi = %s v %s, want S1 v S4", tmpl[0].Home, tmpl[0].Away)
		}
	})

	t.Run("three groups rejected", func(t *testing.T) {
		if _, err := SemiFinals([]string{"A", "B", "C"}); !errors.Is(err, fixture.ErrConfiguration) {
			t.Errorf("error = %v, want ErrConfiguration", err)
		}
	})
}

func TestRefString(t *testing.T) {
	tests := []struct {
		ref  Ref
		want string
	}{
		{Position(1), "#1"},
		{GroupPosition("A", 2), "A2"},
		{WinnerOf(SlotEliminator), "winner of Eliminator"},
		{LoserOf(SlotQualifier1), "loser of Qualifier 1"},
	}
	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
