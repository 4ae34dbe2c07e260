package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/glue"
	"github.com/aws/aws-sdk-go/service/glue/glueiface"
	log "github.com/sirupsen/logrus"
)

const defaultCrawlerPollInterval = 10 * time.Second

// Crawler runs a Glue crawler that indexes the transformed zone into the
// data catalog.
type Crawler struct {
	api          glueiface.GlueAPI
	name         string
	pollInterval time.Duration
	logger       log.FieldLogger
}

func NewCrawler(api glueiface.GlueAPI, name string, pollInterval time.Duration, logger log.FieldLogger) *Crawler {
	if pollInterval <= 0 {
		pollInterval = defaultCrawlerPollInterval
	}
	return &Crawler{
		api:          api,
		name:         name,
		pollInterval: pollInterval,
		logger:       logger.WithFields(log.Fields{"component": "glue", "crawler": name}),
	}
}

func NewCrawlerFromSession(sess *session.Session, name string, pollInterval time.Duration, logger log.FieldLogger) *Crawler {
	return NewCrawler(glue.New(sess), name, pollInterval, logger)
}

// Crawl starts the crawler and blocks until the crawl finishes. If the
// crawler is already running, Crawl waits for that crawl instead. A crawl
// that ends FAILED or CANCELLED is an error.
func (c *Crawler) Crawl(ctx context.Context) error {
	before, err := c.getCrawler(ctx)
	if err != nil {
		return err
	}
	previousStart := lastCrawlStart(before)

	_, err = c.api.StartCrawlerWithContext(ctx, &glue.StartCrawlerInput{
		Name: aws.String(c.name),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == glue.ErrCodeCrawlerRunningException {
			c.logger.Infof("crawler is already running, waiting for the running crawl to finish")
		} else {
			return fmt.Errorf("unable to start crawler %s: %v", c.name, err)
		}
	} else {
		c.logger.Infof("started crawler")
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		crawler, err := c.getCrawler(ctx)
		if err != nil {
			return err
		}
		state := aws.StringValue(crawler.State)
		c.logger.Debugf("crawler state: %s", state)
		if state != glue.CrawlerStateReady {
			continue
		}
		last := crawler.LastCrawl
		if last == nil || !lastCrawlStart(crawler).After(previousStart) {
			// READY but the new crawl hasn't been recorded yet.
			continue
		}
		switch status := aws.StringValue(last.Status); status {
		case glue.LastCrawlStatusSucceeded:
			c.logger.Infof("crawl succeeded")
			return nil
		default:
			return fmt.Errorf("crawler %s finished with status %s: %s", c.name, status, aws.StringValue(last.ErrorMessage))
		}
	}
}

func (c *Crawler) getCrawler(ctx context.Context) (*glue.Crawler, error) {
	out, err := c.api.GetCrawlerWithContext(ctx, &glue.GetCrawlerInput{
		Name: aws.String(c.name),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to get crawler %s: %v", c.name, err)
	}
	if out.Crawler == nil {
		return nil, fmt.Errorf("crawler %s not found", c.name)
	}
	return out.Crawler, nil
}

func lastCrawlStart(c *glue.Crawler) time.Time {
	if c == nil || c.LastCrawl == nil {
		return time.Time{}
	}
	return aws.TimeValue(c.LastCrawl.StartTime)
}
