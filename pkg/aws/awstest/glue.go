package awstest

import (
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/glue"
	"github.com/aws/aws-sdk-go/service/glue/glueiface"
)

// MockGlue simulates a single crawler. Starting it makes the next
// GetCrawler calls report RUNNING for RunningPolls polls, then READY with a
// new last crawl carrying FinalStatus.
type MockGlue struct {
	glueiface.GlueAPI

	mu           sync.Mutex
	Name         string
	RunningPolls int
	FinalStatus  string
	ErrorMessage string
	// AlreadyRunning makes StartCrawler fail with CrawlerRunningException.
	AlreadyRunning bool

	Starts    int
	running   bool
	remaining int
	lastCrawl *glue.LastCrawlInfo
}

func (m *MockGlue) StartCrawlerWithContext(_ aws.Context, in *glue.StartCrawlerInput, _ ...request.Option) (*glue.StartCrawlerOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if aws.StringValue(in.Name) != m.Name {
		return nil, awserr.New(glue.ErrCodeEntityNotFoundException, "crawler not found", nil)
	}
	m.running = true
	m.remaining = m.RunningPolls
	if m.AlreadyRunning {
		return nil, awserr.New(glue.ErrCodeCrawlerRunningException, "crawler is running", nil)
	}
	m.Starts++
	return &glue.StartCrawlerOutput{}, nil
}

func (m *MockGlue) GetCrawlerWithContext(_ aws.Context, in *glue.GetCrawlerInput, _ ...request.Option) (*glue.GetCrawlerOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if aws.StringValue(in.Name) != m.Name {
		return nil, awserr.New(glue.ErrCodeEntityNotFoundException, "crawler not found", nil)
	}
	state := glue.CrawlerStateReady
	if m.running {
		if m.remaining > 0 {
			m.remaining--
			state = glue.CrawlerStateRunning
		} else {
			m.running = false
			status := m.FinalStatus
			if status == "" {
				status = glue.LastCrawlStatusSucceeded
			}
			m.lastCrawl = &glue.LastCrawlInfo{
				StartTime:    aws.Time(time.Now()),
				Status:       aws.String(status),
				ErrorMessage: aws.String(m.ErrorMessage),
			}
		}
	}
	return &glue.GetCrawlerOutput{
		Crawler: &glue.Crawler{
			Name:      in.Name,
			State:     aws.String(state),
			LastCrawl: m.lastCrawl,
		},
	}, nil
}
