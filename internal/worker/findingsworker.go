package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/noobzero/security-monkey/internal/findings"
	"github.com/noobzero/security-monkey/internal/s3api"
	"github.com/noobzero/security-monkey/internal/sdkapimgr"
	"github.com/noobzero/security-monkey/internal/shared"
)

// FindingsCsvWorker drains findings off its request channel into an
// in-memory CSV report and flushes it to the local filesystem and/or S3
// when the channel closes.
type FindingsCsvWorker struct {
	accountId    string              // account id to resolve the s3 client with
	recordCount  int                 // findings written so far
	buffer       *bytes.Buffer       // buffer for report bytes
	csvWriter    *csv.Writer         // csv writer over the buffer
	outputConfig OutputConfiguration // where the report is written
	Worker       Worker              // worker interface
}

type FindingsCsvWorkerConfig struct {
	AccountId    string // account id to resolve the s3 client with
	WorkerConfig WorkerConfig
	OutputConfig OutputConfiguration
}

type OutputConfiguration struct {
	Filename   string // name of report file to be written
	Prefix     string // s3 prefix to use when writing to s3
	BucketName string // name of s3 bucket
	WriteLocal bool   // write to local filesystem
	WriteS3    bool   // write to s3
}

type FindingsWorkerRequest struct {
	Finding findings.Finding // finding to append to the report
}

// create new findings csv worker
func NewFindingsCsvWorker(config FindingsCsvWorkerConfig) (*FindingsCsvWorker, error) {
	if !shared.IsValidAwsAccountId(config.AccountId) {
		log.Printf("invalid account id [%v]\n", config.AccountId)
		return nil, errors.New("invalid account id")
	}

	// check for valid output configuration
	if !config.OutputConfig.WriteLocal && !config.OutputConfig.WriteS3 {
		return nil, errors.New("invalid output configuration. writing to S3 & local file system set to false")
	}
	if config.OutputConfig.WriteS3 && config.OutputConfig.BucketName == "" {
		return nil, errors.New("invalid output configuration. bucket name is empty")
	}
	if config.OutputConfig.Filename == "" {
		return nil, errors.New("invalid output configuration. filename is empty")
	}

	worker, err := NewWorker(config.WorkerConfig)
	if err != nil {
		return nil, errors.New("invalid worker config : " + err.Error())
	}

	buffer := new(bytes.Buffer)
	csvWriter := csv.NewWriter(buffer)

	// report header row
	if err := csvWriter.Write(findings.CsvHeaders()); err != nil {
		return nil, err
	}

	findingsWorker := &FindingsCsvWorker{
		accountId:    config.AccountId,
		buffer:       buffer,
		csvWriter:    csvWriter,
		outputConfig: config.OutputConfig,
		Worker:       worker,
	}

	worker.SetRequestHandler(findingsWorker)
	worker.SetFinalizer(findingsWorker)

	return findingsWorker, nil
}

// handle requests
func (fw *FindingsCsvWorker) Handle(request interface{}) {
	errorChan := fw.Worker.GetErrorChannel()
	req, ok := request.(FindingsWorkerRequest)
	if !ok {
		errorChan <- errors.New("type assertion failure. request is not a findings worker request")
		return
	}
	if err := fw.csvWriter.Write(req.Finding.CsvRecord()); err != nil {
		errorChan <- err
		return
	}
	fw.recordCount++
}

// finalize processing
func (fw *FindingsCsvWorker) Finalize() {
	errorChan := fw.Worker.GetErrorChannel()
	fw.csvWriter.Flush()

	if err := fw.csvWriter.Error(); err != nil {
		errorChan <- err
	}
	log.Printf("findings report contains [%v] findings\n", fw.recordCount)
	finalBytes := fw.buffer.Bytes()

	// write to local file system if specified in output configuration
	if fw.outputConfig.WriteLocal {
		log.Printf("writing findings report to file [%v]\n", fw.outputConfig.Filename)
		file, err := os.Create(fw.outputConfig.Filename)
		if err != nil {
			errorChan <- err
			log.Printf("error creating file [%v]\n", err.Error())
		} else {
			defer file.Close()
			if _, err := file.Write(finalBytes); err != nil {
				errorChan <- err
				log.Printf("error writing to file [%v]\n", err.Error())
			}
		}
	}

	// write to s3 if specified in output configuration
	if fw.outputConfig.WriteS3 {
		fullObjName := filepath.Join(fw.outputConfig.Prefix, fw.outputConfig.Filename)
		log.Printf("writing findings report to s3 [%v]\n", fullObjName)

		awsClientMgr := fw.Worker.GetSDKClientMgr()
		client, ok := awsClientMgr.GetApi(fw.accountId, sdkapimgr.S3Service)
		if !ok {
			errorChan <- errors.New("no s3 client registered for account " + fw.accountId)
			return
		}
		s3Client := client.(s3api.S3Api)
		_, err := s3Client.PutObject(context.Background(), &s3.PutObjectInput{
			Bucket: aws.String(fw.outputConfig.BucketName),
			Key:    aws.String(fullObjName),
			Body:   bytes.NewReader(finalBytes),
		})
		if err != nil {
			errorChan <- err
			log.Printf("error writing to s3 [%v]\n", err.Error())
		}
	}
}
