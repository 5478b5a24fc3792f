package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/accessanalyzer"
	accessAnalyzerTypes "github.com/aws/aws-sdk-go-v2/service/accessanalyzer/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/noobzero/security-monkey/internal/accessanalyzerapi"
	"github.com/noobzero/security-monkey/internal/auditor"
	"github.com/noobzero/security-monkey/internal/cache"
	"github.com/noobzero/security-monkey/internal/collector"
	"github.com/noobzero/security-monkey/internal/findings"
	"github.com/noobzero/security-monkey/internal/iamapi"
	"github.com/noobzero/security-monkey/internal/registry"
	"github.com/noobzero/security-monkey/internal/s3api"
	"github.com/noobzero/security-monkey/internal/sdkapimgr"
	"github.com/noobzero/security-monkey/internal/shared"
	"github.com/noobzero/security-monkey/internal/worker"
)

type Handler interface {
	Handle(ctx context.Context, params interface{}) error
}

type ResourcePolicyAuditEvent struct {
	ConfigEvent events.ConfigEvent
}

// ResourcePolicyAuditConfig is the audit run configuration, stored as a JSON
// object in S3 and addressed by environment variables.
type ResourcePolicyAuditConfig struct {
	Accounts     []registry.Account  `json:"accounts"`     // known-accounts registry records
	PolicyKeys   map[string][]string `json:"policyKeys"`   // resource type -> extraction path overrides
	ReportBucket string              `json:"reportBucket"` // bucket for finding reports
	ReportPrefix string              `json:"reportPrefix"` // key prefix for finding reports
	WriteLocal   bool                `json:"writeLocal"`   // also write reports to the local filesystem
	TestMode     bool                `json:"testMode"`     // config service test mode
	LintPolicies bool                `json:"lintPolicies"` // validate extracted policies with access analyzer
}

// extraction paths per resource type when the run config has no override
var defaultPolicyKeys = map[string][]string{
	shared.AwsIamRole:  {collector.TrustPolicyKey},
	shared.AwsS3Bucket: {collector.BucketPolicyKey},
}

type _ResourcePolicyAuditHandler struct {
	s3Api s3api.S3Api
}

func NewResourcePolicyAuditHandler(cfg aws.Config) (Handler, error) {
	return &_ResourcePolicyAuditHandler{
		s3Api: s3api.NewS3SDKClient(s3.NewFromConfig(cfg)),
	}, nil
}

func (h *_ResourcePolicyAuditHandler) Handle(ctx context.Context, params interface{}) error {
	event, ok := params.(ResourcePolicyAuditEvent)
	if !ok {
		return errors.New("type assertion failure. event is not type resource policy audit event")
	}

	// read environment variables for config file location
	configBucketName := os.Getenv(shared.EnvBucketName)
	log.Printf("config bucket name : [%s]\n", configBucketName)
	configFileObjectKey := os.Getenv(shared.EnvConfigFileKey)
	log.Printf("config file object key : [%s]\n", configFileObjectKey)

	if configBucketName == "" || configFileObjectKey == "" {
		return errors.New("env vars not set")
	}

	// retrieve run config from s3
	getObjectOutput, err := h.s3Api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(configBucketName),
		Key:    aws.String(configFileObjectKey),
	})
	if err != nil {
		return err
	}

	objectContent, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return err
	}

	var runConfig ResourcePolicyAuditConfig
	if err := json.Unmarshal(objectContent, &runConfig); err != nil {
		return err
	}
	log.Printf("run config unmarshalled : [%+v]\n", runConfig)

	accountRegistry, err := registry.NewAccountRegistry(runConfig.Accounts)
	if err != nil {
		return err
	}

	// load aws config
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithRetryMaxAttempts(3))
	if err != nil {
		return err
	}

	mainAccountId := event.ConfigEvent.AccountID
	awsClientMgr, err := sdkapimgr.InitAwsApiMgr(sdkapimgr.SDKApiMgrConfig{
		Cfg:           cfg,
		MainAccountId: mainAccountId,
		Accounts:      runConfig.Accounts,
	})
	if err != nil {
		return err
	}

	registryInspector, err := auditor.NewRegistryInspector(accountRegistry)
	if err != nil {
		return err
	}
	inspector, err := auditor.NewCachedInspector(registryInspector, cache.NewClassificationCache())
	if err != nil {
		return err
	}

	now := time.Now()
	year, month, day := now.Year(), now.Month(), now.Day()
	hour, minute, second := now.Hour(), now.Minute(), now.Second()
	timestampPrefix := fmt.Sprintf("year=%d/month=%02d/day=%02d/%02d-%02d-%02d-", year, month, day, hour, minute, second)

	var (
		batchErrors      []error
		errorChan        = make(chan error, 1)
		findingsReqChan  = make(chan interface{}, 1)
		evaluationsChan  = make(chan interface{}, 1)
		findingsWorkerWg = new(sync.WaitGroup)
		evalWorkerWg     = new(sync.WaitGroup)
	)

	// drain errors into a batch for the run summary
	errorDrainWg := new(sync.WaitGroup)
	errorDrainWg.Add(1)
	go func() {
		defer errorDrainWg.Done()
		for err := range errorChan {
			log.Printf("error from audit run : [%s]\n", err.Error())
			batchErrors = append(batchErrors, err)
		}
	}()

	reportBucket := runConfig.ReportBucket
	if reportBucket == "" {
		reportBucket = configBucketName
	}

	findingsWorker, err := worker.NewFindingsCsvWorker(worker.FindingsCsvWorkerConfig{
		AccountId: mainAccountId,
		WorkerConfig: worker.WorkerConfig{
			Ctx:          ctx,
			Id:           "findings csv worker",
			Wg:           findingsWorkerWg,
			RequestChan:  findingsReqChan,
			ErrorChan:    errorChan,
			SdkClientMgr: awsClientMgr,
		},
		OutputConfig: worker.OutputConfiguration{
			Filename:   "findings/" + timestampPrefix + "findings.csv",
			Prefix:     runConfig.ReportPrefix,
			BucketName: reportBucket,
			WriteLocal: runConfig.WriteLocal,
			WriteS3:    true,
		},
	})
	if err != nil {
		return err
	}

	evaluationWorker, err := worker.NewConfigEvaluationWorker(worker.ConfigEvaluationWorkerConfig{
		AccountId:   mainAccountId,
		ResultToken: event.ConfigEvent.ResultToken,
		TestMode:    runConfig.TestMode,
		WorkerConfig: worker.WorkerConfig{
			Ctx:          ctx,
			Id:           "config evaluation worker",
			Wg:           evalWorkerWg,
			RequestChan:  evaluationsChan,
			ErrorChan:    errorChan,
			SdkClientMgr: awsClientMgr,
		},
	})
	if err != nil {
		return err
	}

	items, err := h.collectItems(ctx, awsClientMgr, mainAccountId, accountRegistry)
	if err != nil {
		return err
	}
	log.Printf("collected [%v] items\n", len(items))

	var linter accessanalyzerapi.AccessAnalyzerApi
	if runConfig.LintPolicies {
		client, ok := awsClientMgr.GetApi(mainAccountId, sdkapimgr.AccessAnalyzerService)
		if !ok {
			return errors.New("no access analyzer client registered for account " + mainAccountId)
		}
		linter = client.(accessanalyzerapi.AccessAnalyzerApi)
	}

	eventTime := now

	for _, item := range items {
		itemFindings := findings.NewCollector()
		aud, err := auditor.NewResourcePolicyAuditor(auditor.ResourcePolicyAuditorConfig{
			PolicyKeys: policyKeysFor(item.ResourceType, runConfig.PolicyKeys),
			Inspector:  inspector,
			Recorder:   itemFindings,
		})
		if err != nil {
			return err
		}

		// a failing item is reported and skipped; the run continues
		if err := aud.CheckAll(item); err != nil {
			errorChan <- fmt.Errorf("item [%s]: %w", item.Identifier, err)
			continue
		}

		for _, finding := range itemFindings.Findings() {
			findingsReqChan <- worker.FindingsWorkerRequest{Finding: finding}
		}
		evaluationsChan <- worker.ComplianceEvaluationRequest{
			ItemIdentifier: item.Identifier,
			ResourceType:   item.ResourceType,
			FindingCount:   itemFindings.Count(),
			Timestamp:      eventTime,
		}

		if linter != nil {
			if err := lintItemPolicies(ctx, linter, aud, item); err != nil {
				errorChan <- err
			}
		}
	}

	// shut down workers, then the error drain
	close(findingsReqChan)
	close(evaluationsChan)
	findingsWorker.Worker.Wait()
	evaluationWorker.Worker.Wait()
	close(errorChan)
	errorDrainWg.Wait()

	if len(batchErrors) > 0 {
		log.Printf("audit run completed with [%v] errors\n", len(batchErrors))
		return errors.Join(batchErrors...)
	}
	log.Println("audit run completed without errors")
	return nil
}

// collectItems gathers items from the main account plus every registry
// account that carries an assume-role arn.
func (h *_ResourcePolicyAuditHandler) collectItems(ctx context.Context, awsClientMgr sdkapimgr.SdkApiMgr, mainAccountId string, accountRegistry registry.AccountRegistry) ([]auditor.Item, error) {
	accountIds := []string{mainAccountId}
	for _, account := range accountRegistry.Accounts() {
		if account.RoleArn != "" && account.AccountID != mainAccountId {
			accountIds = append(accountIds, account.AccountID)
		}
	}

	var items []auditor.Item
	for _, accountId := range accountIds {
		iamClient, ok := awsClientMgr.GetApi(accountId, sdkapimgr.IamService)
		if !ok {
			return nil, errors.New("no iam client registered for account " + accountId)
		}
		roleCollector, err := collector.NewIAMRoleCollector(collector.IAMRoleCollectorConfig{
			AccountId: accountId,
			IamApi:    iamClient.(iamapi.IamApi),
		})
		if err != nil {
			return nil, err
		}
		roleItems, err := roleCollector.Collect(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, roleItems...)

		s3Client, ok := awsClientMgr.GetApi(accountId, sdkapimgr.S3Service)
		if !ok {
			return nil, errors.New("no s3 client registered for account " + accountId)
		}
		bucketCollector, err := collector.NewS3BucketCollector(collector.S3BucketCollectorConfig{
			AccountId: accountId,
			S3Api:     s3Client.(s3api.S3Api),
		})
		if err != nil {
			return nil, err
		}
		bucketItems, err := bucketCollector.Collect(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, bucketItems...)
	}
	return items, nil
}

func policyKeysFor(resourceType string, overrides map[string][]string) []string {
	if keys, ok := overrides[resourceType]; ok && len(keys) > 0 {
		return keys
	}
	if keys, ok := defaultPolicyKeys[resourceType]; ok {
		return keys
	}
	return []string{"Policy"}
}

// lintItemPolicies runs every extracted policy document through the access
// analyzer ValidatePolicy api and logs the validation findings.
func lintItemPolicies(ctx context.Context, linter accessanalyzerapi.AccessAnalyzerApi, aud auditor.ResourcePolicyAuditor, item auditor.Item) error {
	policies, err := aud.LoadPolicies(item)
	if err != nil {
		return fmt.Errorf("item [%s] lint: %w", item.Identifier, err)
	}
	for _, pol := range policies {
		document, err := json.Marshal(pol.Document)
		if err != nil {
			return fmt.Errorf("item [%s] lint: %w", item.Identifier, err)
		}
		output, err := linter.ValidatePolicy(ctx, &accessanalyzer.ValidatePolicyInput{
			PolicyDocument: aws.String(string(document)),
			PolicyType:     accessAnalyzerTypes.PolicyTypeResourcePolicy,
		})
		if err != nil {
			return fmt.Errorf("item [%s] lint: %w", item.Identifier, err)
		}
		for _, line := range shared.ConvertLintFindingsToStrings(output.Findings) {
			log.Printf("policy lint [%v] : [%v]\n", item.Identifier, line)
		}
	}
	return nil
}
