package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Virain6/money-management/internal/calculator"
	"github.com/Virain6/money-management/internal/models"
)

func TestCreateExpenseValidation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	addPeople(t, store, "alice", "bob")

	svc := NewLedgerService(store, nil, "")
	ctx := context.Background()

	tests := []struct {
		name    string
		input   ExpenseInput
		wantErr error
	}{
		{
			name:    "no participants",
			input:   ExpenseInput{Amount: 10, PayerID: models.MeID},
			wantErr: models.ErrEmptyParticipants,
		},
		{
			name:    "zero amount",
			input:   ExpenseInput{Amount: 0, PayerID: models.MeID, ParticipantIDs: []string{models.MeID}},
			wantErr: models.ErrNonPositiveAmount,
		},
		{
			name:    "amount rounds to zero cents",
			input:   ExpenseInput{Amount: 0.004, PayerID: models.MeID, ParticipantIDs: []string{models.MeID}},
			wantErr: models.ErrNonPositiveAmount,
		},
		{
			name:    "missing payer",
			input:   ExpenseInput{Amount: 10, ParticipantIDs: []string{models.MeID}},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "duplicate participant",
			input:   ExpenseInput{Amount: 10, PayerID: models.MeID, ParticipantIDs: []string{"alice", "alice"}},
			wantErr: models.ErrInvalidSplit,
		},
		{
			name: "percents off by one",
			input: ExpenseInput{
				Amount: 10, PayerID: models.MeID, ParticipantIDs: []string{models.MeID, "alice"},
				Mode: calculator.Percent{Percents: []float64{50, 49}},
			},
			wantErr: models.ErrInvalidSplit,
		},
		{
			name:    "NaN amount",
			input:   ExpenseInput{Amount: math.NaN(), PayerID: models.MeID, ParticipantIDs: []string{models.MeID}},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "infinite amount",
			input:   ExpenseInput{Amount: math.Inf(1), PayerID: models.MeID, ParticipantIDs: []string{models.MeID}},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:    "amount beyond int64 cents",
			input:   ExpenseInput{Amount: 1e20, PayerID: models.MeID, ParticipantIDs: []string{models.MeID}},
			wantErr: models.ErrInvalidInput,
		},
		{
			name: "NaN percent",
			input: ExpenseInput{
				Amount: 10, PayerID: models.MeID, ParticipantIDs: []string{models.MeID, "alice"},
				Mode: calculator.Percent{Percents: []float64{math.NaN(), 50}},
			},
			wantErr: models.ErrInvalidSplit,
		},
		{
			name:    "unknown participant",
			input:   ExpenseInput{Amount: 10, PayerID: models.MeID, ParticipantIDs: []string{models.MeID, "ghost"}},
			wantErr: models.ErrNotFound,
		},
		{
			name:    "unknown payer",
			input:   ExpenseInput{Amount: 10, PayerID: "ghost", ParticipantIDs: []string{models.MeID}},
			wantErr: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := svc.CreateExpense(ctx, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateExpense() error = %v, want %v", err, tt.wantErr)
			}
			if id != "" {
				t.Errorf("expected no id on failure, got %s", id)
			}
		})
	}

	recent, err := store.ListRecentExpenses(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentExpenses failed: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("expected no expenses after failed creates, got %d", len(recent))
	}
}

func TestCreateExpense(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	addPeople(t, store, "alice", "bob")

	svc := NewLedgerService(store, nil, "")
	ctx := context.Background()

	id, err := svc.CreateExpense(ctx, ExpenseInput{
		Description:    "Pizza",
		Amount:         10,
		Date:           may10,
		PayerID:        models.MeID,
		ParticipantIDs: []string{"alice", "bob", models.MeID},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	detail, err := svc.GetExpenseWithParticipants(ctx, id)
	if err != nil {
		t.Fatalf("GetExpenseWithParticipants failed: %v", err)
	}
	if detail.Expense.CreatedBy != models.MeID {
		t.Errorf("expected created_by me, got %q", detail.Expense.CreatedBy)
	}
	if detail.Expense.Currency != models.DefaultCurrency {
		t.Errorf("expected currency %s, got %s", models.DefaultCurrency, detail.Expense.Currency)
	}

	// equal split: the last participant in input order (me) absorbs the cent
	want := map[string]float64{"alice": 3.33, "bob": 3.33, models.MeID: 3.34}
	for _, p := range detail.Participants {
		if p.Share != want[p.UserID] {
			t.Errorf("share for %s = %v, want %v", p.UserID, p.Share, want[p.UserID])
		}
	}
	if len(detail.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(detail.Participants))
	}
	if detail.Participants[0].Name != "alice" || detail.Participants[2].Name != "Me" {
		t.Errorf("expected participants sorted by name, got %+v", detail.Participants)
	}

	t.Run("custom currency and default date", func(t *testing.T) {
		usd := NewLedgerService(store, nil, "USD")
		id, err := usd.CreateExpense(ctx, ExpenseInput{Amount: 5, PayerID: models.MeID, ParticipantIDs: []string{models.MeID}})
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		detail, err := usd.GetExpenseWithParticipants(ctx, id)
		if err != nil {
			t.Fatalf("GetExpenseWithParticipants failed: %v", err)
		}
		if detail.Expense.Currency != "USD" {
			t.Errorf("expected USD, got %s", detail.Expense.Currency)
		}
		if detail.Expense.Date.IsZero() {
			t.Error("expected date to default to now")
		}
	})
}

func TestUpdateExpense(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	addPeople(t, store, "alice", "bob")

	svc := NewLedgerService(store, nil, "")
	ctx := context.Background()

	id, err := svc.CreateExpense(ctx, ExpenseInput{
		Amount:         30,
		Date:           may10,
		PayerID:        models.MeID,
		ParticipantIDs: []string{models.MeID, "alice", "bob"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("replaces allocation and participants", func(t *testing.T) {
		err := svc.UpdateExpense(ctx, id, ExpenseInput{
			Description:    "Groceries",
			Amount:         9,
			Date:           may10,
			PayerID:        "alice",
			ParticipantIDs: []string{models.MeID, "alice"},
			Mode:           calculator.Shares{Weights: []float64{1, 2}},
		})
		if err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		detail, err := svc.GetExpenseWithParticipants(ctx, id)
		if err != nil {
			t.Fatalf("GetExpenseWithParticipants failed: %v", err)
		}
		if detail.Expense.PayerID != "alice" || detail.Expense.Amount != 9 || detail.Expense.Description != "Groceries" {
			t.Errorf("unexpected expense after update: %+v", detail.Expense)
		}
		if detail.Expense.CreatedBy != models.MeID {
			t.Errorf("created_by should not change on update, got %q", detail.Expense.CreatedBy)
		}
		if len(detail.Participants) != 2 {
			t.Fatalf("expected 2 participants, got %d", len(detail.Participants))
		}
		shares := map[string]float64{}
		for _, p := range detail.Participants {
			shares[p.UserID] = p.Share
		}
		if shares[models.MeID] != 3 || shares["alice"] != 6 {
			t.Errorf("unexpected shares %v", shares)
		}
	})

	t.Run("invalid split leaves expense untouched", func(t *testing.T) {
		err := svc.UpdateExpense(ctx, id, ExpenseInput{
			Amount:         9,
			PayerID:        models.MeID,
			ParticipantIDs: []string{models.MeID, "bob"},
			Mode:           calculator.Amounts{Amounts: []float64{1, 2}},
		})
		if !errors.Is(err, models.ErrInvalidSplit) {
			t.Fatalf("expected ErrInvalidSplit, got %v", err)
		}
		detail, err := svc.GetExpenseWithParticipants(ctx, id)
		if err != nil {
			t.Fatalf("GetExpenseWithParticipants failed: %v", err)
		}
		if detail.Expense.PayerID != "alice" || len(detail.Participants) != 2 {
			t.Errorf("expense changed after rejected update: %+v", detail)
		}
	})

	t.Run("unknown expense", func(t *testing.T) {
		err := svc.UpdateExpense(ctx, "ghost", ExpenseInput{Amount: 1, PayerID: models.MeID, ParticipantIDs: []string{models.MeID}})
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := svc.DeleteExpense(ctx, id); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := svc.GetExpenseWithParticipants(ctx, id); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := svc.DeleteExpense(ctx, id); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestNetByPerson(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	addPeople(t, store, "alice", "bob", "carol")

	svc := NewLedgerService(store, nil, "")
	ctx := context.Background()

	_, err := svc.CreateExpense(ctx, ExpenseInput{
		Amount:         30,
		Date:           may10,
		PayerID:        models.MeID,
		ParticipantIDs: []string{models.MeID, "alice", "bob"},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	net, err := svc.NetByPerson(ctx)
	if err != nil {
		t.Fatalf("NetByPerson failed: %v", err)
	}
	if len(net) != 2 || net["alice"] != 10 || net["bob"] != 10 {
		t.Fatalf("expected {alice: 10, bob: 10}, got %v", net)
	}
	if _, ok := net["carol"]; ok {
		t.Error("carol has no activity and should have no entry")
	}

	if _, err := svc.RecordSettlement(ctx, SettlementInput{PayerID: "alice", PayeeID: models.MeID, Amount: 10, Date: may10}); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	net, err = svc.NetByPerson(ctx)
	if err != nil {
		t.Fatalf("NetByPerson failed: %v", err)
	}
	if v, ok := net["alice"]; !ok || v != 0 {
		t.Errorf("expected alice settled to 0, got %v (present=%v)", v, ok)
	}
	if net["bob"] != 10 {
		t.Errorf("expected bob still at 10, got %v", net["bob"])
	}

	t.Run("bills others paid count against me", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, ExpenseInput{
			Amount:         24,
			Date:           may10,
			PayerID:        "bob",
			ParticipantIDs: []string{models.MeID, "bob"},
		})
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		balances, err := svc.ListBalances(ctx)
		if err != nil {
			t.Fatalf("ListBalances failed: %v", err)
		}
		if len(balances) != 3 {
			t.Fatalf("expected 3 balances, got %d", len(balances))
		}
		// bob: 10 - 12 = -2; alice and carol at 0, ordered by name
		if balances[0].Person.ID != "bob" || balances[0].Net != -2 {
			t.Errorf("expected bob at -2 first, got %+v", balances[0])
		}
		if balances[1].Person.ID != "alice" || balances[2].Person.ID != "carol" {
			t.Errorf("unexpected order %+v", balances)
		}
	})
}

func TestSettlements(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	addPeople(t, store, "alice")

	svc := NewLedgerService(store, nil, "")
	ctx := context.Background()

	tests := []struct {
		name    string
		input   SettlementInput
		wantErr error
	}{
		{"zero amount", SettlementInput{PayerID: "alice", PayeeID: models.MeID}, models.ErrNonPositiveAmount},
		{"same person", SettlementInput{PayerID: "alice", PayeeID: "alice", Amount: 1}, models.ErrInvalidInput},
		{"missing payee", SettlementInput{PayerID: "alice", Amount: 1}, models.ErrInvalidInput},
		{"unknown payee", SettlementInput{PayerID: "alice", PayeeID: "ghost", Amount: 1}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordSettlement(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordSettlement() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	id, err := svc.RecordSettlement(ctx, SettlementInput{PayerID: models.MeID, PayeeID: "alice", Amount: 4.5, Note: "coffee"})
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	list, err := svc.ListSettlementsForPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSettlementsForPerson failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != id || list[0].Amount != 4.5 {
		t.Errorf("unexpected settlements %+v", list)
	}

	if err := svc.DeleteSettlement(ctx, id); err != nil {
		t.Fatalf("DeleteSettlement failed: %v", err)
	}
	if err := svc.DeleteSettlement(ctx, id); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListRecentExpensesForPerson(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	addPeople(t, store, "alice")

	svc := NewLedgerService(store, nil, "")
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.CreateExpense(ctx, ExpenseInput{
			Amount:         float64(i + 1),
			Date:           may10.AddDate(0, 0, i),
			PayerID:        models.MeID,
			ParticipantIDs: []string{models.MeID, "alice"},
		})
		if err != nil {
			t.Fatalf("CreateExpense #%d failed: %v", i, err)
		}
	}

	got, err := svc.ListRecentExpensesForPerson(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("ListRecentExpensesForPerson failed: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected default limit of 20, got %d", len(got))
	}
	if got[0].Expense.Amount != 25 || !got[0].Participated || got[0].Share != 12.5 {
		t.Errorf("expected newest expense first with alice's share, got %+v", got[0])
	}
}

func TestNonFiniteAmountsAreRejected(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	addPeople(t, store, "alice")

	ledger := NewLedgerService(store, nil, "")
	spends := NewSpendService(store, nil)
	budgets := NewBudgetService(store, nil)
	ctx := context.Background()

	for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e17} {
		if _, err := ledger.RecordSettlement(ctx, SettlementInput{PayerID: "alice", PayeeID: models.MeID, Amount: amount, Date: may10}); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("RecordSettlement(%v) error = %v, want ErrInvalidInput", amount, err)
		}
		if _, err := spends.AddPersonalSpend(ctx, SpendInput{Amount: amount, Date: may10}); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("AddPersonalSpend(%v) error = %v, want ErrInvalidInput", amount, err)
		}
		if _, err := budgets.CreateBudget(ctx, "Fun", amount, may2024); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("CreateBudget(%v) error = %v, want ErrInvalidInput", amount, err)
		}
	}

	spend, err := spends.AddPersonalSpend(ctx, SpendInput{Amount: 5, Date: may10})
	if err != nil {
		t.Fatalf("AddPersonalSpend failed: %v", err)
	}
	nan := math.NaN()
	if err := spends.UpdatePersonalSpend(ctx, spend.ID, models.SpendPatch{Amount: &nan}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("UpdatePersonalSpend(NaN) error = %v, want ErrInvalidInput", err)
	}

	settlements, err := ledger.ListSettlementsForPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSettlementsForPerson failed: %v", err)
	}
	if len(settlements) != 0 {
		t.Errorf("expected no settlements, got %+v", settlements)
	}
	got, err := spends.GetPersonalSpend(ctx, spend.ID)
	if err != nil {
		t.Fatalf("GetPersonalSpend failed: %v", err)
	}
	if got.Amount != 5 {
		t.Errorf("expected amount unchanged at 5, got %v", got.Amount)
	}
}
