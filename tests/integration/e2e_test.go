//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	grpcadapter "github.com/simaogato/portfolio-backend/internal/adapter/grpc"
	"github.com/simaogato/portfolio-backend/internal/adapter/csvloader"
	"github.com/simaogato/portfolio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-backend/internal/adapter/rest"
	"github.com/simaogato/portfolio-backend/internal/usecase/portfolio"
	"github.com/simaogato/portfolio-backend/internal/usecase/returns"
	"github.com/simaogato/portfolio-backend/internal/usecase/seeder"
	"github.com/simaogato/portfolio-backend/internal/usecase/transaction"
)

const apiToken = "integration-token"

// now pins both services to a fixed day so the seeded prices stay inside the window
var now = time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

// priceDump covers two ASX instruments, CBA trading daily and BHP with gaps
const priceDump = `COMPANY_ID,UNIQUE_SYMBOL,TICKER_SYMBOL,COMPANY_NAME,EXCHANGE_SYMBOL,EXCHANGE_COUNTRY_ISO,PRIMARY_INDUSTRY_ID,TRADING_ITEM_ID,PRICING_DATE,PRICE_CLOSE,PRICE_CLOSE_USD,SHARES_OUTSTANDING,MARKET_CAP
101,ASX:CBA,CBA,Commonwealth Bank,ASX,AU,5,2001,2024-03-01,10.00,6.60,1000,10000
101,ASX:CBA,CBA,Commonwealth Bank,ASX,AU,5,2001,2024-03-04,11.00,7.26,1000,11000
101,ASX:CBA,CBA,Commonwealth Bank,ASX,AU,5,2001,2024-03-05,11.50,7.59,1000,11500
101,ASX:CBA,CBA,Commonwealth Bank,ASX,AU,5,2001,2024-03-06,12.00,7.92,1000,12000
101,ASX:CBA,CBA,Commonwealth Bank,ASX,AU,5,2001,2024-03-07,11.50,7.59,1000,11500
102,ASX:BHP,BHP,BHP Group,ASX,AU,7,2002,2024-03-01,40.00,26.40,,
102,ASX:BHP,BHP,BHP Group,ASX,AU,7,2002,2024-03-05,42.00,27.72,,
`

var (
	db         *postgres.DB
	httpServer *httptest.Server
	grpcClient *grpcadapter.Client
)

// TestMain starts Postgres, seeds market data and serves both adapters in-process
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()
	log := zerolog.Nop()

	// 1. Database: DB_CONN_STR wins, otherwise a throwaway container
	dbConnStr := os.Getenv("DB_CONN_STR")
	if dbConnStr == "" {
		container, connStr, err := startPostgres(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start postgres: %v\n", err)
			return 1
		}
		defer func() { _ = container.Terminate(ctx) }()
		dbConnStr = connStr
	}

	var err error
	db, err = postgres.NewDB(dbConnStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
		return 1
	}

	// 2. Market data
	if err := seedPrices(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to seed prices: %v\n", err)
		return 1
	}

	// 3. Services with a pinned clock
	portfolioRepo := postgres.NewPortfolioRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	tradingItemRepo := postgres.NewTradingItemRepository(db)
	priceRepo := postgres.NewHistoricalPriceRepository(db)

	portfolioService := portfolio.NewPortfolioService(portfolioRepo)
	transactionService := transaction.NewTransactionService(portfolioRepo, transactionRepo, tradingItemRepo, log)
	transactionService.Clock = func() time.Time { return now }
	returnsService := returns.NewReturnsService(portfolioRepo, transactionRepo, priceRepo, log)
	returnsService.Clock = func() time.Time { return now }

	// 4. REST
	httpServer = httptest.NewServer(rest.New(rest.Config{
		Log:          log,
		Portfolios:   portfolioService,
		Returns:      returnsService,
		Transactions: transactionService,
	}).Handler())
	defer httpServer.Close()

	// 5. gRPC over a loopback listener
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to listen: %v\n", err)
		return 1
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcadapter.LoggingInterceptor(log),
		grpcadapter.AuthInterceptor(apiToken),
	))
	grpcadapter.RegisterPortfolioServiceServer(grpcServer,
		grpcadapter.NewServer(portfolioService, returnsService, transactionService, log))
	go func() { _ = grpcServer.Serve(lis) }()
	defer grpcServer.Stop()

	grpcConn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to gRPC server: %v\n", err)
		return 1
	}
	defer grpcConn.Close()
	grpcClient = grpcadapter.NewClient(grpcConn)

	return m.Run()
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "portfolio",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, "", err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container, "", err
	}

	connStr := fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=portfolio sslmode=disable",
		host, port.Port())
	return container, connStr, nil
}

func seedPrices(ctx context.Context) error {
	marketSeeder := seeder.NewMarketDataSeeder(
		postgres.NewTradingItemRepository(db),
		postgres.NewHistoricalPriceRepository(db),
		zerolog.Nop(),
	)
	_, err := marketSeeder.Seed(ctx, csvloader.NewLoader(strings.NewReader(priceDump), 3))
	return err
}

func getAuthContext() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", apiToken)
}

// doJSON sends body to the REST server and decodes the answer into out when it is non-nil
func doJSON(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, httpServer.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createPortfolio(t *testing.T, name string) string {
	t.Helper()
	resp, err := grpcClient.CreatePortfolio(getAuthContext(), &grpcadapter.CreatePortfolioRequest{Name: name})
	require.NoError(t, err)
	return resp.PortfolioID
}

func returnValues(t *testing.T, portfolioID string, days int32) []string {
	t.Helper()
	resp, err := grpcClient.GetPortfolioReturns(getAuthContext(), &grpcadapter.GetPortfolioReturnsRequest{
		PortfolioID: portfolioID,
		Days:        days,
	})
	require.NoError(t, err)

	values := make([]string, 0, len(resp.Returns))
	for _, p := range resp.Returns {
		values = append(values, p.PortfolioValue)
	}
	return values
}

func assertValues(t *testing.T, expected []string, actual []string) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.True(t, decimal.RequireFromString(expected[i]).Equal(decimal.RequireFromString(actual[i])),
			"day %d: expected %s, got %s", i, expected[i], actual[i])
	}
}

func TestSeededPrices(t *testing.T) {
	ctx := context.Background()
	priceRepo := postgres.NewHistoricalPriceRepository(db)

	t.Run("reseeding does not duplicate", func(t *testing.T) {
		require.NoError(t, seedPrices(ctx))

		var count int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM historical_prices WHERE trading_item_id IN (2001, 2002)`).Scan(&count))
		assert.Equal(t, 7, count)
	})

	t.Run("exact day lookup", func(t *testing.T) {
		price, err := priceRepo.GetPriceAt(ctx, 2001, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Nil(t, price)

		price, err = priceRepo.GetPriceAt(ctx, 2001, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, price)
		assert.True(t, price.PriceCloseAUD.Equal(decimal.RequireFromString("11.50")))
	})

	t.Run("carry forward lookup", func(t *testing.T) {
		price, err := priceRepo.GetLastPriceBefore(ctx, 2002, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, price)
		assert.True(t, price.PriceCloseAUD.Equal(decimal.NewFromInt(40)))
		assert.Nil(t, price.SharesOutstanding)
	})
}

func TestEndToEndFlow(t *testing.T) {
	portfolioID := createPortfolio(t, "E2E Growth")

	// 1. Upload a buy and an unknown ticker
	upload, err := grpcClient.UploadTransactions(getAuthContext(), &grpcadapter.UploadTransactionsRequest{
		PortfolioID: portfolioID,
		Transactions: []*grpcadapter.TransactionInput{
			{TickerSymbol: "ASX:CBA", TransactionDate: "2024-03-01T00:00:00Z", TransactionType: "buy", Quantity: "150", Price: "10.00"},
			{TickerSymbol: "ASX:ZZZ", TransactionDate: "2024-03-01T00:00:00Z", TransactionType: "buy", Quantity: "1", Price: "1"},
		},
	})
	require.NoError(t, err)
	require.Len(t, upload.Accepted, 1)
	require.Len(t, upload.Rejected, 1)
	assert.Equal(t, "Unknown ticker symbol: ASX:ZZZ", upload.Rejected[0].Reason)
	buyID := upload.Accepted[0].TransactionID

	// 2. Four-day window prices the 150 shares daily
	assertValues(t, []string{"1650", "1725", "1800", "1725"}, returnValues(t, portfolioID, 4))

	resp, err := grpcClient.GetPortfolioReturns(getAuthContext(), &grpcadapter.GetPortfolioReturnsRequest{PortfolioID: portfolioID, Days: 4})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", resp.Returns[0].Date)
	assert.Equal(t, "2024-03-07", resp.Returns[3].Date)
	assert.True(t, decimal.Zero.Equal(decimal.RequireFromString(resp.Returns[0].DailyReturn)))
	secondReturn, _ := decimal.RequireFromString(resp.Returns[1].DailyReturn).Float64()
	assert.InDelta(t, 1725.0/1650.0-1, secondReturn, 1e-9)

	// 3. Shrink the position through REST
	var updated struct {
		Transaction struct {
			Quantity json.Number `json:"quantity"`
		} `json:"transaction"`
	}
	code := doJSON(t, http.MethodPut, "/api/portfolios/"+portfolioID+"/transactions/"+buyID,
		map[string]any{"quantity": 100}, &updated)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "100", updated.Transaction.Quantity.String())

	assertValues(t, []string{"1100", "1150", "1200", "1150"}, returnValues(t, portfolioID, 4))

	// 4. Sell half on the 6th
	upload, err = grpcClient.UploadTransactions(getAuthContext(), &grpcadapter.UploadTransactionsRequest{
		PortfolioID: portfolioID,
		Transactions: []*grpcadapter.TransactionInput{
			{TickerSymbol: "asx:cba", TransactionDate: "2024-03-06T03:00:00Z", TransactionType: "sell", Quantity: "50", Price: "12"},
		},
	})
	require.NoError(t, err)
	require.Len(t, upload.Accepted, 1)
	assert.Empty(t, upload.Accepted[0].Warnings)
	sellID := upload.Accepted[0].TransactionID

	assertValues(t, []string{"1100", "1150", "600", "575"}, returnValues(t, portfolioID, 4))

	// 5. Delete everything and the portfolio is worth nothing again
	for _, id := range []string{buyID, sellID} {
		var deleted map[string]string
		code := doJSON(t, http.MethodDelete, "/api/portfolios/"+portfolioID+"/transactions/"+id, nil, &deleted)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Transaction deleted successfully", deleted["message"])
	}

	assertValues(t, []string{"0", "0", "0", "0"}, returnValues(t, portfolioID, 4))
}

func TestCarryForwardFromLookback(t *testing.T) {
	portfolioID := createPortfolio(t, "E2E Miner")

	var upload struct {
		Accepted []map[string]any `json:"acceptedTransactions"`
		Rejected []map[string]any `json:"rejectedTransactions"`
	}
	code := doJSON(t, http.MethodPost, "/api/portfolios/"+portfolioID+"/transactions", map[string]any{
		"transactions": []map[string]any{
			{"tickerSymbol": "ASX:BHP", "transactionDate": "2024-02-28T00:00:00Z", "transactionType": "buy", "quantity": 10, "price": 39},
		},
	}, &upload)
	require.Equal(t, http.StatusMultiStatus, code)
	require.Len(t, upload.Accepted, 1)
	assert.Empty(t, upload.Rejected)

	// The 4th has no BHP close, the 1st is carried from the lookback range
	assertValues(t, []string{"400", "420", "420", "420"}, returnValues(t, portfolioID, 4))
}

func TestOversellWarning(t *testing.T) {
	portfolioID := createPortfolio(t, "E2E Short")

	upload, err := grpcClient.UploadTransactions(getAuthContext(), &grpcadapter.UploadTransactionsRequest{
		PortfolioID: portfolioID,
		Transactions: []*grpcadapter.TransactionInput{
			{TickerSymbol: "ASX:CBA", TransactionDate: "2024-03-05T00:00:00Z", TransactionType: "sell", Quantity: "20", Price: "11.5"},
		},
	})
	require.NoError(t, err)
	require.Len(t, upload.Accepted, 1)
	require.Len(t, upload.Accepted[0].Warnings, 1)
	assert.Contains(t, upload.Accepted[0].Warnings[0], "exceeds current holdings")

	// Negative holdings contribute nothing
	assertValues(t, []string{"0", "0", "0", "0"}, returnValues(t, portfolioID, 4))
}

func TestNegativeScenarios(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		_, err := grpcClient.CreatePortfolio(context.Background(), &grpcadapter.CreatePortfolioRequest{Name: "nope"})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		_, err := grpcClient.GetPortfolioReturns(getAuthContext(), &grpcadapter.GetPortfolioReturnsRequest{
			PortfolioID: "00000000-0000-0000-0000-000000000001",
			Days:        7,
		})
		assert.Equal(t, codes.NotFound, status.Code(err))

		var body map[string]any
		code := doJSON(t, http.MethodGet, "/api/portfolios/00000000-0000-0000-0000-000000000001/returns", nil, &body)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("window too long", func(t *testing.T) {
		portfolioID := createPortfolio(t, "E2E Window")

		var body map[string]any
		code := doJSON(t, http.MethodGet, "/api/portfolios/"+portfolioID+"/returns?days=31", nil, &body)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Validation Error", body["error"])
	})

	t.Run("blank portfolio name", func(t *testing.T) {
		var body map[string]any
		code := doJSON(t, http.MethodPost, "/api/portfolios", map[string]any{"name": "   "}, &body)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("transaction of another portfolio", func(t *testing.T) {
		owner := createPortfolio(t, "E2E Owner")
		other := createPortfolio(t, "E2E Other")

		upload, err := grpcClient.UploadTransactions(getAuthContext(), &grpcadapter.UploadTransactionsRequest{
			PortfolioID: owner,
			Transactions: []*grpcadapter.TransactionInput{
				{TickerSymbol: "ASX:CBA", TransactionDate: "2024-03-04T00:00:00Z", TransactionType: "buy", Quantity: "1", Price: "11"},
			},
		})
		require.NoError(t, err)
		require.Len(t, upload.Accepted, 1)

		_, err = grpcClient.DeleteTransaction(getAuthContext(), &grpcadapter.DeleteTransactionRequest{
			PortfolioID:   other,
			TransactionID: upload.Accepted[0].TransactionID,
		})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}
