// Command arbengine is the engine's entrypoint: it wires every component
// named in SPEC_FULL.md §2 and drives the Scan Loop over a reportChan, the
// way the teacher's cmd/main.go wires Blackhole and drives RunStrategy1.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	arbengine "arbengine"
	"arbengine/configs"
	"arbengine/internal/db"
	"arbengine/internal/util"
	"arbengine/pkg/contractclient"
	"arbengine/pkg/executor"
	"arbengine/pkg/guard"
	"arbengine/pkg/metrics"
	"arbengine/pkg/nonce"
	"arbengine/pkg/quote"
	"arbengine/pkg/scanner"
	"arbengine/pkg/txlistener"
	arbtypes "arbengine/pkg/types"
)

const (
	exitOK            = 0
	exitRPCFailure    = 1
	exitConfigMissing = 2
	defaultConfigPath = "configs/config.yml"
	routerABIPath     = "abi/router.json"
	executorABIPath   = "abi/executor.json"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := defaultConfigPath
	if v := os.Getenv("ARBENGINE_CONFIG"); v != "" {
		configPath = v
	}

	conf, err := configs.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arbengine: load config: %v\n", err)
		return exitConfigMissing
	}
	if err := conf.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "arbengine: invalid config: %v\n", err)
		return exitConfigMissing
	}

	eth, err := ethclient.Dial(conf.RPCURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arbengine: dial rpc: %v\n", err)
		return exitRPCFailure
	}
	rpcc, err := rpc.Dial(conf.RPCURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arbengine: dial rpc (batch): %v\n", err)
		return exitRPCFailure
	}

	quotes := quote.New(conf.USDPriceMap, nil)
	scn := scanner.New(eth, rpcc, conf.ToVenues(), conf.ToTokenInfos(), quotes, nil, conf.ToScannerSettings())

	m := metrics.New(prometheus.NewRegistry())
	recorder := buildRecorder(conf)
	defer recorder.Close()

	if conf.MetricsAddr != "" {
		go serveMetrics(conf.MetricsAddr)
	}

	var pipeline arbengine.ExecutionRunner
	if conf.EnableExecution {
		p, err := buildPipeline(conf, eth, m, quotes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "arbengine: build execution pipeline: %v\n", err)
			return exitConfigMissing
		}
		pipeline = p
	} else {
		pipeline = noopRunner{}
	}

	engineCfg := arbengine.Config{
		ScanInterval:    time.Duration(conf.ScanIntervalMs) * time.Millisecond,
		EnableExecution: conf.EnableExecution,
		PersistEveryNth: conf.PersistEveryNth,
	}
	if conf.EnableExecution {
		execConf, err := conf.ToExecutorConfig(quotes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "arbengine: %v\n", err)
			return exitConfigMissing
		}
		engineCfg.LoanAmount = execConf.LoanAmount
		engineCfg.MinProfitUSD = execConf.MinProfit
	}
	engineCfg.FeeNum = 9975
	engineCfg.FeeDenom = 10000

	eng := arbengine.New(scn, pipeline, m, recorder, engineCfg, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reportChan := make(chan arbengine.Frame, 64)
	go func() {
		for frame := range reportChan {
			fmt.Printf("[%s] %v\n", frame.Type, frame.Data)
		}
	}()

	if err := eng.RunScanLoop(ctx, reportChan); err != nil {
		fmt.Fprintf(os.Stderr, "arbengine: scan loop exited: %v\n", err)
		close(reportChan)
		return exitRPCFailure
	}
	close(reportChan)
	return exitOK
}

func buildRecorder(conf *configs.Config) db.Recorder {
	if conf.DBDSN == "" {
		return db.NoopRecorder{}
	}
	rec, err := db.NewMySQLRecorder(conf.DBDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arbengine: connect persistence db failed, falling back to noop: %v\n", err)
		return db.NoopRecorder{}
	}
	return rec
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "arbengine: metrics server stopped: %v\n", err)
	}
}

// resolvePrivateKey returns the signer's hex private key, preferring the
// ENC_PK/KEY encrypted pair (the teacher's cmd/main.go pattern) over the
// raw PRIVATE_KEY env var / config value.
func resolvePrivateKey(conf *configs.Config) (string, error) {
	if encryptedPk := os.Getenv("ENC_PK"); encryptedPk != "" {
		key := os.Getenv("KEY")
		if key == "" {
			return "", fmt.Errorf("KEY is required to decrypt ENC_PK")
		}
		pk, err := util.Decrypt([]byte(key), encryptedPk)
		if err != nil {
			return "", fmt.Errorf("decrypt ENC_PK: %w", err)
		}
		return pk, nil
	}

	signerHex := os.Getenv("PRIVATE_KEY")
	if signerHex == "" {
		signerHex = conf.PrivateKey
	}
	if signerHex == "" {
		return "", fmt.Errorf("no private key configured: set ENC_PK+KEY or PRIVATE_KEY")
	}
	return signerHex, nil
}

func buildPipeline(conf *configs.Config, eth *ethclient.Client, m *metrics.Metrics, quotes *quote.Table) (*executor.Pipeline, error) {
	execConf, err := conf.ToExecutorConfig(quotes)
	if err != nil {
		return nil, err
	}

	signerHex, err := resolvePrivateKey(conf)
	if err != nil {
		return nil, err
	}
	signerHex = strings.TrimPrefix(signerHex, "0x")
	key, err := crypto.HexToECDSA(signerHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	signer := contractclient.AddressFromKey(key)

	routerABI, err := util.LoadABI(routerABIPath)
	if err != nil {
		return nil, fmt.Errorf("load router abi: %w", err)
	}
	executorABI, err := util.LoadABI(executorABIPath)
	if err != nil {
		return nil, fmt.Errorf("load executor abi: %w", err)
	}

	routerClient := executor.NewRouterClient(func(addr common.Address) contractclient.ContractClient {
		return contractclient.New(eth, addr, routerABI)
	})
	executorCC := contractclient.New(eth, common.HexToAddress(conf.ArbContract), executorABI)
	executorClient := executor.NewExecutorClient(executorCC, eth, signer)

	listener := txlistener.NewTxListener(eth, txlistener.WithPollInterval(3*time.Second), txlistener.WithTimeout(5*time.Minute))
	g := guard.New()
	nonces := nonce.New(eth, signer)

	return executor.New(execConf, routerClient, executorClient, eth, listener, g, nonces, m, quotes, key, nil), nil
}

// noopRunner backs ExecutionRunner when execution is disabled: the scan
// loop checks EnableExecution before ever calling Run, so this never
// actually fires, but it keeps Engine's dependency non-nil.
type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, opps []arbtypes.Opportunity) (*executor.Outcome, error) {
	return nil, nil
}
