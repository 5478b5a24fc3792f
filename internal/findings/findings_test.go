package findings

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noobzero/security-monkey/internal/auditor"
)

var (
	testItem = auditor.Item{
		Identifier:   "arn:aws:s3:::test-bucket",
		ResourceType: "AWS::S3::Bucket",
		AccountID:    "012345678910",
	}
	testEntity = auditor.Entity{Category: "principal", Value: "arn:aws:iam::111111111111:root"}
)

func TestCollectorRecords(t *testing.T) {
	assertion := assert.New(t)

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	collector := NewCollector()
	collector.now = func() time.Time { return fixed }

	collector.RecordInternetAccess(testItem, auditor.Everyone(), []string{"s3:GetObject"})
	collector.RecordFriendlyAccess(testItem, testEntity, []string{"s3:ListBucket"})
	collector.RecordThirdPartyAccess(testItem, testEntity, nil)
	collector.RecordUnknownAccess(testItem, testEntity, nil)
	collector.RecordCrossAccountRoot(testItem, testEntity, []string{"s3:GetObject"})

	recorded := collector.Findings()
	assertion.Equal(5, collector.Count())
	assertion.Equal(CategoryInternet, recorded[0].Category)
	assertion.Equal(CategoryFriendly, recorded[1].Category)
	assertion.Equal(CategoryThirdParty, recorded[2].Category)
	assertion.Equal(CategoryUnknown, recorded[3].Category)
	assertion.Equal(CategoryRootCrossAccount, recorded[4].Category)

	assertion.Equal(testItem.Identifier, recorded[0].ItemIdentifier)
	assertion.Equal(testItem.ResourceType, recorded[0].ResourceType)
	assertion.Equal(testItem.AccountID, recorded[0].AccountID)
	assertion.Equal("*", recorded[0].EntityValue)
	assertion.Equal(fixed, recorded[0].Detected)
}

func TestCollectorSnapshotIsolation(t *testing.T) {
	assertion := assert.New(t)

	collector := NewCollector()
	actions := []string{"s3:GetObject"}
	collector.RecordInternetAccess(testItem, auditor.Everyone(), actions)

	// mutating the caller's slice must not reach the recorded finding
	actions[0] = "s3:DeleteObject"
	assertion.Equal([]string{"s3:GetObject"}, collector.Findings()[0].Actions)

	// mutating the snapshot must not reach the collector
	snapshot := collector.Findings()
	snapshot[0].Category = "tampered"
	assertion.Equal(CategoryInternet, collector.Findings()[0].Category)
}

func TestCollectorReset(t *testing.T) {
	assertion := assert.New(t)

	collector := NewCollector()
	collector.RecordUnknownAccess(testItem, testEntity, nil)
	assertion.Equal(1, collector.Count())

	collector.Reset()
	assertion.Zero(collector.Count())
	assertion.Empty(collector.Findings())
}

func TestCollectorConcurrentAppends(t *testing.T) {
	assertion := assert.New(t)

	collector := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordUnknownAccess(testItem, testEntity, []string{"s3:GetObject"})
		}()
	}
	wg.Wait()
	assertion.Equal(50, collector.Count())
}

func TestCsvRecord(t *testing.T) {
	assertion := assert.New(t)

	finding := Finding{
		Category:       CategoryInternet,
		ItemIdentifier: "arn:aws:s3:::test-bucket",
		ResourceType:   "AWS::S3::Bucket",
		AccountID:      "012345678910",
		EntityCategory: "principal",
		EntityValue:    "*",
		Actions:        []string{"s3:GetObject", "s3:ListBucket"},
		Detected:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	record := finding.CsvRecord()
	assertion.Len(record, len(CsvHeaders()))
	assertion.Equal([]string{
		"internet",
		"arn:aws:s3:::test-bucket",
		"AWS::S3::Bucket",
		"012345678910",
		"principal",
		"*",
		"s3:GetObject s3:ListBucket",
		"2024-06-01T12:00:00Z",
	}, record)
}
