package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/downline/internal/dataset"
	"github.com/vanshika/downline/internal/domain"
)

// Generator produces a synthetic agency: a member tree and the deals its
// members wrote. Output is fully determined by Config.Seed and Config.Now.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumMembers <= 0 {
		cfg.NumMembers = def.NumMembers
	}
	if cfg.NumDeals < 0 {
		cfg.NumDeals = 0
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = def.MaxChildren
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = def.HistoryDays
	}
	if cfg.WriterShare <= 0 || cfg.WriterShare > 1 {
		cfg.WriterShare = def.WriterShare
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	cfg.Now = cfg.Now.UTC()

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Generate synthesises members and deals. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (dataset.Snapshot, error) {
	members, err := g.members(ctx)
	if err != nil {
		return dataset.Snapshot{}, err
	}
	deals, err := g.deals(ctx, members)
	if err != nil {
		return dataset.Snapshot{}, err
	}
	return dataset.Snapshot{Members: members, Deals: deals}, nil
}

// members grows the tree top-down: each new member attaches to a random
// existing member that still has room for children.
func (g *Generator) members(ctx context.Context) ([]domain.Member, error) {
	members := make([]domain.Member, 0, g.cfg.NumMembers)
	children := make(map[string]int, g.cfg.NumMembers)
	var open []string

	joined := g.cfg.Now.AddDate(0, 0, -2*g.cfg.HistoryDays)
	for i := 0; i < g.cfg.NumMembers; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := g.newID()
		if err != nil {
			return nil, err
		}

		first, last := g.randomName()
		m := domain.Member{
			ID:        id,
			FirstName: first,
			LastName:  last,
			Email:     g.randomEmail(first, last, i),
			IsAdmin:   i == 0,
			CreatedAt: joined,
		}

		switch {
		case i == 0 || len(open) == 0:
		case g.rand.Float64() < g.cfg.DanglingChance:
			m.ParentID = "departed-" + id[:8]
		default:
			slot := g.rand.Intn(len(open))
			parent := open[slot]
			m.ParentID = parent
			children[parent]++
			if children[parent] >= g.cfg.MaxChildren {
				open[slot] = open[len(open)-1]
				open = open[:len(open)-1]
			}
		}
		m.UpdatedAt = m.CreatedAt.Add(time.Duration(g.rand.Intn(72)) * time.Hour)

		members = append(members, m)
		open = append(open, id)
		joined = joined.Add(time.Duration(1+g.rand.Intn(24)) * time.Hour)
	}
	return members, nil
}

func (g *Generator) deals(ctx context.Context, members []domain.Member) ([]domain.Deal, error) {
	if len(members) == 0 || g.cfg.NumDeals == 0 {
		return []domain.Deal{}, nil
	}

	writers := make([]string, 0, len(members))
	for _, m := range members {
		if g.rand.Float64() < g.cfg.WriterShare {
			writers = append(writers, m.ID)
		}
	}
	if len(writers) == 0 {
		writers = append(writers, members[0].ID)
	}

	span := time.Duration(g.cfg.HistoryDays) * 24 * time.Hour
	deals := make([]domain.Deal, 0, g.cfg.NumDeals)
	for i := 0; i < g.cfg.NumDeals; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := g.newID()
		if err != nil {
			return nil, err
		}

		occurred := g.cfg.Now.Add(-time.Duration(g.rand.Int63n(int64(span)))).Truncate(time.Minute)
		first, last := g.randomName()
		deals = append(deals, domain.Deal{
			ID:         id,
			OwnerID:    writers[g.rand.Intn(len(writers))],
			OccurredAt: occurred,
			Premium:    g.randomPremium(),
			Carrier:    g.randomCarrier(),
			Product:    g.pick(g.nameFragments.products),
			Status:     g.pick(g.nameFragments.statuses),
			ClientName: first + " " + last,
			CreatedAt:  occurred,
			UpdatedAt:  occurred.Add(time.Duration(g.rand.Intn(48)) * time.Hour),
		})
	}
	return deals, nil
}

// newID draws a v4 UUID from the seeded source so reruns reproduce ids.
func (g *Generator) newID() (string, error) {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

// randomPremium returns a monthly premium in one of the shapes upstream
// forms produce: a number, formatted text, or junk.
func (g *Generator) randomPremium() any {
	amount := float64(2500+g.rand.Intn(37500)) / 100
	roll := g.rand.Float64()
	switch {
	case roll < g.cfg.MalformedChance:
		return g.pick(g.nameFragments.junkPremiums)
	case roll < g.cfg.MalformedChance+g.cfg.TextPremiumChance:
		return fmt.Sprintf("$%.2f", amount)
	default:
		return amount
	}
}

// randomCarrier leaves roughly one deal in twenty without a carrier.
func (g *Generator) randomCarrier() string {
	if g.rand.Intn(20) == 0 {
		return ""
	}
	return g.pick(g.nameFragments.carriers)
}

func (g *Generator) randomName() (string, string) {
	return g.pick(g.nameFragments.first), g.pick(g.nameFragments.last)
}

func (g *Generator) randomEmail(first, last string, n int) string {
	return fmt.Sprintf("%s.%s%d@%s", first, last, n, g.pick(g.nameFragments.domains))
}

func (g *Generator) pick(options []string) string {
	return options[g.rand.Intn(len(options))]
}

type nameFragments struct {
	first        []string
	last         []string
	domains      []string
	carriers     []string
	products     []string
	statuses     []string
	junkPremiums []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:        []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:         []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains:      []string{"example.com", "agency.test", "mail.com"},
		carriers:     []string{"Aetna", "Humana", "UnitedHealthcare", "Cigna", "Mutual of Omaha", "Blue Cross"},
		products:     []string{"Medicare Advantage", "Medicare Supplement", "Final Expense", "Term Life", "ACA"},
		statuses:     []string{"submitted", "issued", "pending", "declined"},
		junkPremiums: []string{"TBD", "n/a", "", "see notes"},
	}
}
