package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/graph"
)

// Repository persists the agency hierarchy and its deals in the graph.
//
// Members are (:Member) nodes linked to their upline through a single
// REPORTS_TO edge; deals are (:Deal) nodes attached to their owner through
// WROTE. The parent and owner ids are also kept as properties so listings do
// not need to traverse edges.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// UpsertMember writes the member node and replaces its REPORTS_TO edge.
func (r *Repository) UpsertMember(ctx context.Context, member domain.Member) error {
	if member.ID == "" {
		return errors.New("member id is required")
	}

	params := map[string]any{
		"memberId": member.ID,
		"parentId": member.ParentID,
		"props":    memberProperties(member),
	}

	if _, err := r.client.ExecuteWrite(ctx, upsertMemberCypher, params); err != nil {
		return fmt.Errorf("upsert member %s: %w", member.ID, err)
	}
	return nil
}

// UpsertDeal writes the deal node and re-points its WROTE edge at the owner.
func (r *Repository) UpsertDeal(ctx context.Context, deal domain.Deal) error {
	if deal.ID == "" {
		return errors.New("deal id is required")
	}
	if deal.OwnerID == "" {
		return errors.New("deal owner id is required")
	}

	params := map[string]any{
		"dealId":  deal.ID,
		"ownerId": deal.OwnerID,
		"props":   dealProperties(deal),
	}

	if _, err := r.client.ExecuteWrite(ctx, upsertDealCypher, params); err != nil {
		return fmt.Errorf("upsert deal %s: %w", deal.ID, err)
	}
	return nil
}

// ListMembers returns the directory ordered by creation time then id.
func (r *Repository) ListMembers(ctx context.Context, filter domain.MemberFilter) ([]domain.Member, error) {
	res, err := r.client.ExecuteRead(ctx, listMembersCypher, map[string]any{
		"limit": filter.EffectiveLimit(),
	})
	if err != nil {
		return nil, fmt.Errorf("list members query: %w", err)
	}

	members := make([]domain.Member, 0, len(res.Records))
	for _, record := range res.Records {
		member := domain.Member{
			ID:        record.String("id"),
			ParentID:  record.String("parentId"),
			FirstName: record.String("firstName"),
			LastName:  record.String("lastName"),
			Email:     record.String("email"),
			IsAdmin:   record.Bool("isAdmin"),
			CreatedAt: record.Time("createdAt"),
			UpdatedAt: record.Time("updatedAt"),
		}
		if member.ID == "" {
			continue
		}
		members = append(members, member)
	}
	return members, nil
}

// ListDeals returns deals ordered by occurrence then id. Since and OwnerIDs
// are pushed into the statement when set.
func (r *Repository) ListDeals(ctx context.Context, filter domain.DealFilter) ([]domain.Deal, error) {
	since := ""
	if filter.Since != nil && !filter.Since.IsZero() {
		since = formatTime(*filter.Since)
	}
	owners := filter.OwnerIDs
	if owners == nil {
		owners = []string{}
	}

	res, err := r.client.ExecuteRead(ctx, listDealsCypher, map[string]any{
		"since":    since,
		"ownerIds": owners,
		"limit":    filter.EffectiveLimit(),
	})
	if err != nil {
		return nil, fmt.Errorf("list deals query: %w", err)
	}

	deals := make([]domain.Deal, 0, len(res.Records))
	for _, record := range res.Records {
		deal := domain.Deal{
			ID:         record.String("id"),
			OwnerID:    record.String("ownerId"),
			OccurredAt: record.Time("occurredAt"),
			Premium:    record["premium"],
			Carrier:    record.String("carrier"),
			Product:    record.String("product"),
			Status:     record.String("status"),
			ClientName: record.String("clientName"),
			CreatedAt:  record.Time("createdAt"),
			UpdatedAt:  record.Time("updatedAt"),
		}
		if deal.ID == "" {
			continue
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

// Ping checks that the graph is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

// EnsureSchema creates the uniqueness constraints and the deal time index.
// Statements are idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func memberProperties(m domain.Member) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"parentId":  m.ParentID,
		"firstName": m.FirstName,
		"lastName":  m.LastName,
		"email":     m.Email,
		"isAdmin":   m.IsAdmin,
		"createdAt": formatTime(m.CreatedAt),
		"updatedAt": formatTime(m.UpdatedAt),
	}
}

func dealProperties(d domain.Deal) map[string]any {
	return map[string]any{
		"id":         d.ID,
		"ownerId":    d.OwnerID,
		"occurredAt": formatTime(d.OccurredAt),
		"premium":    premiumValue(d.Premium),
		"carrier":    d.Carrier,
		"product":    d.Product,
		"status":     d.Status,
		"clientName": d.ClientName,
		"createdAt":  formatTime(d.CreatedAt),
		"updatedAt":  formatTime(d.UpdatedAt),
	}
}

// premiumValue keeps the premium as a graph-storable scalar. Free text is
// stored untouched so the aggregator applies the same coercion on every read.
func premiumValue(v any) any {
	switch p := v.(type) {
	case nil:
		return nil
	case string, float64, int64, bool:
		return p
	case int:
		return int64(p)
	case int32:
		return int64(p)
	case float32:
		return float64(p)
	case json.Number:
		return p.String()
	case decimal.Decimal:
		return p.String()
	case []byte:
		return string(p)
	default:
		return fmt.Sprint(p)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

var schemaStatements = []string{
	"CREATE CONSTRAINT member_id IF NOT EXISTS FOR (m:Member) REQUIRE m.id IS UNIQUE",
	"CREATE CONSTRAINT deal_id IF NOT EXISTS FOR (d:Deal) REQUIRE d.id IS UNIQUE",
	"CREATE INDEX deal_occurred_at IF NOT EXISTS FOR (d:Deal) ON (d.occurredAt)",
	"CREATE INDEX deal_owner_id IF NOT EXISTS FOR (d:Deal) ON (d.ownerId)",
}

const upsertMemberCypher = `
MERGE (m:Member {id: $memberId})
SET m += $props
WITH m
OPTIONAL MATCH (m)-[old:REPORTS_TO]->()
DELETE old
WITH DISTINCT m
FOREACH (_ IN CASE WHEN $parentId = "" OR $parentId = $memberId THEN [] ELSE [1] END |
	MERGE (p:Member {id: $parentId})
	MERGE (m)-[:REPORTS_TO]->(p)
)
RETURN m.id AS id
`

const upsertDealCypher = `
MERGE (d:Deal {id: $dealId})
SET d += $props
WITH d
OPTIONAL MATCH ()-[old:WROTE]->(d)
DELETE old
WITH DISTINCT d
MERGE (o:Member {id: $ownerId})
MERGE (o)-[:WROTE]->(d)
RETURN d.id AS id
`

// Placeholder nodes created by MERGE on an unknown parent or owner carry no
// createdAt and are left out of the directory.
const listMembersCypher = `
MATCH (m:Member)
WHERE m.createdAt IS NOT NULL
RETURN m.id AS id,
       coalesce(m.parentId, "") AS parentId,
       m.firstName AS firstName,
       m.lastName AS lastName,
       m.email AS email,
       coalesce(m.isAdmin, false) AS isAdmin,
       m.createdAt AS createdAt,
       m.updatedAt AS updatedAt
ORDER BY m.createdAt, m.id
LIMIT $limit
`

const listDealsCypher = `
MATCH (d:Deal)
WHERE ($since = "" OR datetime(d.occurredAt) >= datetime($since))
  AND (size($ownerIds) = 0 OR d.ownerId IN $ownerIds)
RETURN d.id AS id,
       d.ownerId AS ownerId,
       d.occurredAt AS occurredAt,
       d.premium AS premium,
       d.carrier AS carrier,
       d.product AS product,
       d.status AS status,
       d.clientName AS clientName,
       d.createdAt AS createdAt,
       d.updatedAt AS updatedAt
ORDER BY d.occurredAt, d.id
LIMIT $limit
`
