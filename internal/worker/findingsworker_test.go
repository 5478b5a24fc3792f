package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"

	"github.com/noobzero/security-monkey/internal/findings"
	"github.com/noobzero/security-monkey/internal/mock"
	"github.com/noobzero/security-monkey/internal/sdkapimgr"
)

const validAwsAccountId = "012345678910"

func testWorkerConfig(requestChan chan interface{}, errorChan chan error, apiMgr sdkapimgr.SdkApiMgr) WorkerConfig {
	return WorkerConfig{
		Ctx:          context.Background(),
		Id:           "findings-csv-worker",
		Wg:           &sync.WaitGroup{},
		RequestChan:  requestChan,
		ErrorChan:    errorChan,
		SdkClientMgr: apiMgr,
	}
}

func testFinding(category string) findings.Finding {
	return findings.Finding{
		Category:       category,
		ItemIdentifier: "arn:aws:s3:::test-bucket",
		ResourceType:   "AWS::S3::Bucket",
		AccountID:      validAwsAccountId,
		EntityCategory: "principal",
		EntityValue:    "*",
		Actions:        []string{"s3:GetObject"},
		Detected:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewFindingsCsvWorker(t *testing.T) {
	assertion := assert.New(t)
	apiMgr := sdkapimgr.NewAwsApiMgr()
	localReport := filepath.Join(t.TempDir(), "report.csv")

	var tests = []struct {
		name          string
		accountId     string
		outputConfig  OutputConfiguration
		expectedValid bool
	}{
		{
			"valid local output", validAwsAccountId,
			OutputConfiguration{Filename: localReport, WriteLocal: true}, true,
		},
		{
			"valid s3 output", validAwsAccountId,
			OutputConfiguration{Filename: "report.csv", BucketName: "report-bucket", WriteS3: true}, true,
		},
		{
			"invalid account id", "not-an-account",
			OutputConfiguration{Filename: "report.csv", WriteLocal: true}, false,
		},
		{
			"no output destination", validAwsAccountId,
			OutputConfiguration{Filename: "report.csv"}, false,
		},
		{
			"s3 output without a bucket", validAwsAccountId,
			OutputConfiguration{Filename: "report.csv", WriteS3: true}, false,
		},
		{
			"empty filename", validAwsAccountId,
			OutputConfiguration{WriteLocal: true}, false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			requestChan := make(chan interface{}, 1)
			errorChan := make(chan error, 1)
			findingsWorker, err := NewFindingsCsvWorker(FindingsCsvWorkerConfig{
				AccountId:    test.accountId,
				WorkerConfig: testWorkerConfig(requestChan, errorChan, apiMgr),
				OutputConfig: test.outputConfig,
			})
			if test.expectedValid {
				assertion.NoError(err)
				assertion.NotNil(findingsWorker)
				close(requestChan)
				findingsWorker.Worker.Wait()
			} else {
				assertion.Error(err)
			}
		})
	}
}

func TestFindingsCsvWorkerWritesLocalReport(t *testing.T) {
	assertion := assert.New(t)

	filename := filepath.Join(t.TempDir(), "findings.csv")
	requestChan := make(chan interface{}, 10)
	errorChan := make(chan error, 10)

	findingsWorker, err := NewFindingsCsvWorker(FindingsCsvWorkerConfig{
		AccountId:    validAwsAccountId,
		WorkerConfig: testWorkerConfig(requestChan, errorChan, sdkapimgr.NewAwsApiMgr()),
		OutputConfig: OutputConfiguration{Filename: filename, WriteLocal: true},
	})
	assertion.NoError(err)

	requestChan <- FindingsWorkerRequest{Finding: testFinding(findings.CategoryInternet)}
	requestChan <- FindingsWorkerRequest{Finding: testFinding(findings.CategoryUnknown)}
	close(requestChan)
	findingsWorker.Worker.Wait()
	assertion.Empty(errorChan)

	file, err := os.Open(filename)
	assertion.NoError(err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	assertion.NoError(err)
	assertion.Len(records, 3)
	assertion.Equal(findings.CsvHeaders(), records[0])
	assertion.Equal("internet", records[1][0])
	assertion.Equal("unknown", records[2][0])
}

func TestFindingsCsvWorkerWritesToS3(t *testing.T) {
	assertion := assert.New(t)

	var captured struct {
		bucket string
		key    string
		body   []byte
	}
	s3Api := &mock.MockS3Api{
		PutObjectFn: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			captured.bucket = aws.ToString(params.Bucket)
			captured.key = aws.ToString(params.Key)
			captured.body, _ = io.ReadAll(params.Body)
			return &s3.PutObjectOutput{}, nil
		},
	}
	apiMgr := sdkapimgr.NewAwsApiMgr()
	assertion.NoError(apiMgr.SetApi(validAwsAccountId, sdkapimgr.S3Service, s3Api))

	requestChan := make(chan interface{}, 10)
	errorChan := make(chan error, 10)
	findingsWorker, err := NewFindingsCsvWorker(FindingsCsvWorkerConfig{
		AccountId:    validAwsAccountId,
		WorkerConfig: testWorkerConfig(requestChan, errorChan, apiMgr),
		OutputConfig: OutputConfiguration{
			Filename:   "findings.csv",
			Prefix:     "reports/2024-06-01",
			BucketName: "report-bucket",
			WriteS3:    true,
		},
	})
	assertion.NoError(err)

	requestChan <- FindingsWorkerRequest{Finding: testFinding(findings.CategoryThirdParty)}
	close(requestChan)
	findingsWorker.Worker.Wait()
	assertion.Empty(errorChan)

	assertion.Equal("report-bucket", captured.bucket)
	assertion.Equal(filepath.Join("reports/2024-06-01", "findings.csv"), captured.key)
	assertion.True(bytes.HasPrefix(captured.body, []byte("category,")))
	assertion.Contains(string(captured.body), "thirdparty")
}

func TestFindingsCsvWorkerRejectsUnexpectedRequests(t *testing.T) {
	assertion := assert.New(t)

	filename := filepath.Join(t.TempDir(), "findings.csv")
	requestChan := make(chan interface{}, 10)
	errorChan := make(chan error, 10)

	findingsWorker, err := NewFindingsCsvWorker(FindingsCsvWorkerConfig{
		AccountId:    validAwsAccountId,
		WorkerConfig: testWorkerConfig(requestChan, errorChan, sdkapimgr.NewAwsApiMgr()),
		OutputConfig: OutputConfiguration{Filename: filename, WriteLocal: true},
	})
	assertion.NoError(err)

	requestChan <- "not a findings worker request"
	close(requestChan)
	findingsWorker.Worker.Wait()

	assertion.Len(errorChan, 1)
	assertion.ErrorContains(<-errorChan, "type assertion failure")
}
