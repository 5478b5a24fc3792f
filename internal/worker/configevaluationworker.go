package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	configservicetypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"

	"github.com/noobzero/security-monkey/internal/configserviceapi"
	"github.com/noobzero/security-monkey/internal/sdkapimgr"
	"github.com/noobzero/security-monkey/internal/shared"
)

const maxAnnotationLength = 256

// ConfigEvaluationWorker batches per-item compliance verdicts to the AWS
// Config service.  An item is NON_COMPLIANT when the cross-account checks
// recorded at least one finding for it.
type ConfigEvaluationWorker struct {
	maxBatchSize      int
	accountId         string // account id to send config evaluations to
	configEvaluations []configservicetypes.Evaluation
	resultToken       string // result token for sending aws config evaluations
	testMode          bool   // config service boolean for testing
	Worker            Worker // worker interface
}

type ConfigEvaluationWorkerConfig struct {
	AccountId    string
	ResultToken  string
	TestMode     bool
	WorkerConfig WorkerConfig
}

// ComplianceEvaluationRequest is one audited item's verdict.
type ComplianceEvaluationRequest struct {
	ItemIdentifier string
	ResourceType   string
	FindingCount   int
	Timestamp      time.Time
}

func NewConfigEvaluationWorker(config ConfigEvaluationWorkerConfig) (*ConfigEvaluationWorker, error) {

	worker, err := NewWorker(config.WorkerConfig)
	if err != nil {
		return nil, errors.New("invalid worker config: " + err.Error())
	}

	if !shared.IsValidAwsAccountId(config.AccountId) {
		log.Printf("invalid aws account id: %s", config.AccountId)
		return nil, errors.New("invalid aws account id")
	}

	// result token is mandatory outside test mode
	if !config.TestMode && config.ResultToken == "" {
		log.Printf("test mode is set to [%v] and result token is not set\n", config.TestMode)
		return nil, errors.New("invalid result token")
	}

	evaluationWorker := &ConfigEvaluationWorker{
		maxBatchSize:      100,
		accountId:         config.AccountId,
		configEvaluations: []configservicetypes.Evaluation{},
		resultToken:       config.ResultToken,
		testMode:          config.TestMode,
		Worker:            worker,
	}

	worker.SetRequestHandler(evaluationWorker)
	worker.SetFinalizer(evaluationWorker)

	return evaluationWorker, nil
}

func (cew *ConfigEvaluationWorker) Handle(params interface{}) {
	errorChan := cew.Worker.GetErrorChannel()

	request, ok := params.(ComplianceEvaluationRequest)
	if !ok {
		errorChan <- errors.New("type assertion failure. request is not a compliance evaluation request")
		return
	}

	complianceType := configservicetypes.ComplianceTypeCompliant
	annotation := "no cross-account access findings"
	if request.FindingCount > 0 {
		complianceType = configservicetypes.ComplianceTypeNonCompliant
		annotation = fmt.Sprintf("%d resource policy finding(s)", request.FindingCount)
	}

	cew.configEvaluations = append(cew.configEvaluations, configservicetypes.Evaluation{
		ComplianceResourceId:   aws.String(request.ItemIdentifier),
		ComplianceResourceType: aws.String(request.ResourceType),
		ComplianceType:         complianceType,
		Annotation:             aws.String(shared.ValidateAnnotation(annotation, maxAnnotationLength)),
		OrderingTimestamp:      aws.Time(request.Timestamp),
	})

	// flush a full batch to the aws config service
	if len(cew.configEvaluations) == cew.maxBatchSize {
		cew.putEvaluations()
	}
}

func (cew *ConfigEvaluationWorker) Finalize() {
	log.Printf("finalizing worker [%v]\n", cew.Worker.GetId())
	log.Printf("length of config evaluations : %v\n", len(cew.configEvaluations))

	// send any remaining config evaluations to the aws config service
	if len(cew.configEvaluations) > 0 {
		cew.putEvaluations()
	}

	log.Printf("worker [%v] successfully finalized\n", cew.Worker.GetId())
}

func (cew *ConfigEvaluationWorker) putEvaluations() {
	errorChan := cew.Worker.GetErrorChannel()
	awsClientMgr := cew.Worker.GetSDKClientMgr()

	client, ok := awsClientMgr.GetApi(cew.accountId, sdkapimgr.ConfigService)
	if !ok {
		errorChan <- errors.New("no config service client registered for account " + cew.accountId)
		return
	}
	configClient := client.(configserviceapi.ConfigServiceApi)

	batchSize := len(cew.configEvaluations)
	_, err := configClient.PutEvaluations(context.Background(), &configservice.PutEvaluationsInput{
		Evaluations: cew.configEvaluations,
		ResultToken: aws.String(cew.resultToken),
		TestMode:    cew.testMode,
	})
	if err != nil {
		log.Printf("error sending config evaluations to aws config service: %v\n", err)
		errorChan <- err
		return
	}
	log.Printf("worker [%v] successfully sent [%v] aws config evaluations\n", cew.Worker.GetId(), batchSize)
	cew.configEvaluations = []configservicetypes.Evaluation{}
}
