package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/pkg/search"
)

const productMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"barcode": { "type": "keyword" },
			"user_price": { "type": "scaled_float", "scaling_factor": 100 },
			"unit_id": { "type": "keyword" },
			"updated_at": { "type": "date" }
		}
	}
}`

// ElasticIndexer mirrors the catalog into an Elasticsearch index.
type ElasticIndexer struct {
	es    *search.Client
	index string
}

type productDocument struct {
	Name      string    `json:"name"`
	Barcode   string    `json:"barcode,omitempty"`
	UserPrice string    `json:"user_price"`
	UnitID    string    `json:"unit_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewElasticIndexer(ctx context.Context, es *search.Client, index string) (*ElasticIndexer, error) {
	if err := es.CreateIndex(ctx, index, productMapping); err != nil {
		return nil, err
	}
	return &ElasticIndexer{es: es, index: index}, nil
}

func (i *ElasticIndexer) Index(ctx context.Context, p *model.Product) error {
	doc := productDocument{
		Name:      p.Name,
		UserPrice: p.UserPrice.StringFixed(model.MoneyScale),
		UpdatedAt: p.UpdatedAt,
	}
	if p.Barcode != nil {
		doc.Barcode = *p.Barcode
	}
	if p.UnitID != nil {
		doc.UnitID = *p.UnitID
	}
	return i.es.Index(ctx, i.index, p.ID, doc)
}

func (i *ElasticIndexer) Remove(ctx context.Context, id string) error {
	return i.es.Delete(ctx, i.index, id)
}

func (i *ElasticIndexer) Search(ctx context.Context, query string, page, pageSize int) ([]string, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{
						"match": map[string]interface{}{
							"name": map[string]interface{}{
								"query":     query,
								"fuzziness": "AUTO",
							},
						},
					},
					{
						"prefix": map[string]interface{}{
							"barcode": query,
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"from":    (page - 1) * pageSize,
		"size":    pageSize,
		"_source": false,
	}

	res, err := i.es.Search(ctx, i.index, q)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, res.Hits.Total.Value, nil
}
