package search

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/sirupsen/logrus"

	"filez/api/internal/store"
)

const idxDocuments = "filez_documents"

type indexedDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Meili wraps the Meilisearch client with a background health check so an
// outage degrades search instead of failing listings.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
	log     *logrus.Logger
}

func NewMeili(url, apiKey string, log *logrus.Logger) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))
	m := &Meili{
		client: client,
		done:   make(chan struct{}),
		log:    log,
	}

	if _, err := client.Health(); err != nil {
		log.WithError(err).Warnf("search: meilisearch unavailable at %s", url)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxDocuments,
		PrimaryKey: "id",
	}); err != nil {
		m.log.WithError(err).Debugf("search: create index %s (may already exist)", idxDocuments)
	}
	searchable := []string{"name"}
	if _, err := m.client.Index(idxDocuments).UpdateSearchableAttributes(&searchable); err != nil {
		m.log.WithError(err).Warnf("search: update searchable attrs for %s", idxDocuments)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.log.Info("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// IndexDocument upserts the document's id and name into the index;
// failures are logged, indexing is never load-bearing.
func (m *Meili) IndexDocument(doc store.Document) {
	if !m.healthy.Load() {
		return
	}
	if _, err := m.client.Index(idxDocuments).AddDocuments([]indexedDoc{{ID: doc.ID, Name: doc.Name}}, nil); err != nil {
		m.log.WithError(err).Warnf("search: index document %s", doc.ID)
	}
}

func (m *Meili) RemoveDocument(docID string) {
	if !m.healthy.Load() {
		return
	}
	if _, err := m.client.Index(idxDocuments).DeleteDocument(docID, nil); err != nil {
		m.log.WithError(err).Warnf("search: remove document %s", docID)
	}
}

// SearchIDs returns the ids of documents whose names match the keyword.
func (m *Meili) SearchIDs(keyword string) (map[string]struct{}, error) {
	res, err := m.client.Index(idxDocuments).Search(keyword, &meili.SearchRequest{Limit: 200})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	ids := make(map[string]struct{}, len(res.Hits))
	for _, hit := range res.Hits {
		if id := decodeHitID(hit); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func decodeHitID(hit meili.Hit) string {
	raw, ok := hit["id"]
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return id
}
