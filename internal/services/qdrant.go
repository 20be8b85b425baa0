package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
)

// CandidateIndex stores candidate profiles as vectors so recruiters can find
// similar people across roles.
type CandidateIndex interface {
	InitCollection(ctx context.Context) error
	UpsertCandidate(ctx context.Context, roleID string, candidate models.Candidate, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, roleID string, limit int) ([]CandidateMatch, error)
	DeleteCandidate(ctx context.Context, roleID, candidateID string) error
}

type CandidateMatch struct {
	RoleID      string  `json:"roleId"`
	CandidateID string  `json:"candidateId"`
	Name        string  `json:"name"`
	CurrentRole string  `json:"currentRole,omitempty"`
	Score       float32 `json:"score"`
	Text        string  `json:"text"`
}

type qdrantService struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	log            *zap.Logger
}

func NewQdrantService(urlStr, apiKey, collectionName string, log *zap.Logger) (CandidateIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004
		log:            log,
	}, nil
}

// InitCollection implements CandidateIndex.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		q.log.Info("✅ Collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.log.Info("✅ Qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// CandidatePointID derives a stable point id, so re-indexing a candidate
// overwrites its previous vector.
func CandidatePointID(roleID, candidateID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("nexus-talent:"+roleID+"/"+candidateID)).String()
}

// CandidateText is the text embedded for a candidate.
func CandidateText(c models.Candidate) string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.CurrentRole != "" {
		b.WriteString(" - " + c.CurrentRole)
	}
	if c.Summary != "" {
		b.WriteString("\n" + c.Summary)
	}
	if c.Experience != "" {
		b.WriteString("\n" + c.Experience)
	}
	if len(c.Skills) > 0 {
		b.WriteString("\nSkills: " + strings.Join(c.Skills, ", "))
	}
	if c.Notes != "" {
		b.WriteString("\nNotes: " + c.Notes)
	}
	return b.String()
}

// UpsertCandidate implements CandidateIndex.
func (q *qdrantService) UpsertCandidate(ctx context.Context, roleID string, candidate models.Candidate, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(CandidatePointID(roleID, candidate.ID)),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"role_id":      roleID,
			"candidate_id": candidate.ID,
			"name":         candidate.Name,
			"current_role": candidate.CurrentRole,
			"text":         CandidateText(candidate),
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// SearchSimilar implements CandidateIndex. An empty roleID searches all roles.
func (q *qdrantService) SearchSimilar(ctx context.Context, queryEmbedding []float32, roleID string, limit int) ([]CandidateMatch, error) {
	var filter *qdrant.Filter
	if roleID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("role_id", roleID),
			},
		}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]CandidateMatch, 0, len(points))
	for _, point := range points {
		p := point.Payload
		matches = append(matches, CandidateMatch{
			RoleID:      payloadString(p, "role_id"),
			CandidateID: payloadString(p, "candidate_id"),
			Name:        payloadString(p, "name"),
			CurrentRole: payloadString(p, "current_role"),
			Text:        payloadString(p, "text"),
			Score:       point.Score,
		})
	}
	return matches, nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
		return s.StringValue
	}
	return ""
}

// DeleteCandidate implements CandidateIndex.
func (q *qdrantService) DeleteCandidate(ctx context.Context, roleID, candidateID string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(CandidatePointID(roleID, candidateID))),
	})
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	return nil
}

// noopIndex is used when Qdrant is disabled.
type noopIndex struct{}

func NewNoopCandidateIndex() CandidateIndex { return noopIndex{} }

func (noopIndex) InitCollection(context.Context) error { return nil }

func (noopIndex) UpsertCandidate(context.Context, string, models.Candidate, []float32) error {
	return nil
}

func (noopIndex) SearchSimilar(context.Context, []float32, string, int) ([]CandidateMatch, error) {
	return []CandidateMatch{}, nil
}

func (noopIndex) DeleteCandidate(context.Context, string, string) error { return nil }
