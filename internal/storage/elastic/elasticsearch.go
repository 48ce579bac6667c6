package elastic

import (
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/mamadaliyev66/CAM-APP/internal/config"
)

const LessonIndex = "lessons"

func NewElasticClient(cfg config.ES) (*elasticsearch.Client, error) {
	username := cfg.Username
	if username == "" {
		username = "elastic"
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Hosts,
		Username:  username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: create client: %w", err)
	}
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elastic: cannot connect to cluster: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elastic: cluster returned error: %s", res.String())
	}
	return client, nil
}
