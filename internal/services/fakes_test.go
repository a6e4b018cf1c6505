package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

var errFakeNotFound = errors.New("not found")

type fakeStore struct {
	mu       sync.Mutex
	cards    map[int64]core.Card
	txs      []core.Transaction
	nextID   int64
	cardHits int
	failSave bool
}

func newFakeStore(cards ...core.Card) *fakeStore {
	s := &fakeStore{cards: make(map[int64]core.Card)}
	for _, c := range cards {
		s.cards[c.ID] = c
	}
	return s
}

func (s *fakeStore) CreateCard(_ context.Context, c core.Card) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = int64(len(s.cards) + 1)
	s.cards[c.ID] = c
	return c, nil
}

func (s *fakeStore) GetCard(_ context.Context, id int64) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardHits++
	c, ok := s.cards[id]
	if !ok {
		return core.Card{}, fmt.Errorf("card %d: %w", id, errFakeNotFound)
	}
	return c, nil
}

func (s *fakeStore) UpdateCard(_ context.Context, c core.Card) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[c.ID]; !ok {
		return core.Card{}, fmt.Errorf("card %d: %w", c.ID, errFakeNotFound)
	}
	s.cards[c.ID] = c
	return c, nil
}

func (s *fakeStore) ListCards(context.Context) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) InsertTransactions(_ context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return nil, errors.New("disk full")
	}
	out := make([]core.Transaction, len(txs))
	for i, t := range txs {
		s.nextID++
		t.ID = s.nextID
		s.txs = append(s.txs, t)
		out[i] = t
	}
	return out, nil
}

func (s *fakeStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, errFakeNotFound)
}

func (s *fakeStore) ListTransactionsBetween(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	return s.filter(func(t core.Transaction) bool {
		return !t.DueDate.Before(from) && !t.DueDate.After(to)
	}), nil
}

func (s *fakeStore) ListCardTransactionsBetween(_ context.Context, cardID int64, from, to core.Date) ([]core.Transaction, error) {
	return s.filter(func(t core.Transaction) bool {
		return t.CardID != nil && *t.CardID == cardID && !t.DueDate.Before(from) && !t.DueDate.After(to)
	}), nil
}

func (s *fakeStore) ListUnpaid(_ context.Context, through core.Date) ([]core.Transaction, error) {
	return s.filter(func(t core.Transaction) bool {
		return !t.IsPaid && !t.DueDate.After(through)
	}), nil
}

func (s *fakeStore) ListGroup(_ context.Context, groupID string) ([]core.Transaction, error) {
	rows := s.filter(func(t core.Transaction) bool { return groupID != "" && t.GroupID == groupID })
	if len(rows) == 0 {
		return nil, fmt.Errorf("group %q: %w", groupID, errFakeNotFound)
	}
	return rows, nil
}

func (s *fakeStore) SetPaid(_ context.Context, id int64, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txs {
		if s.txs[i].ID == id {
			s.txs[i].IsPaid = paid
			return nil
		}
	}
	return fmt.Errorf("transaction %d: %w", id, errFakeNotFound)
}

func (s *fakeStore) filter(keep func(core.Transaction) bool) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, event *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func cardID(id int64) *int64 { return &id }
