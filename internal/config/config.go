package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	JWTSecret string // JWT署名シークレット

	GoEnv     string // dev/prod
	APIDomain string // APIドメイン（cookieやCORSなどで使う）
	FEURL     string // フロントURL（CORSなどで使う）

	// チェックアウトまわり（未設定ならデフォルト）
	TaxRatePercent    decimal.Decimal // 税率（%）
	OrderNumberPrefix string          // 注文番号プレフィックス

	// 代引き（COD）
	CODEnabled     bool
	CODFee         decimal.Decimal
	CODMinSubtotal decimal.Decimal
	CODMaxSubtotal decimal.Decimal // 0なら上限なし
	CODCountries   []string        // 空なら全国可。ISO 3166-1 alpha-2のCSV

	// アップロード
	UploadDir      string
	UploadMaxBytes int64
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	taxRate, err := decimalEnv("TAX_RATE_PERCENT", "10")
	if err != nil {
		return Config{}, err
	}
	codFee, err := decimalEnv("COD_FEE", "5.00")
	if err != nil {
		return Config{}, err
	}
	codMin, err := decimalEnv("COD_MIN_SUBTOTAL", "0")
	if err != nil {
		return Config{}, err
	}
	codMax, err := decimalEnv("COD_MAX_SUBTOTAL", "0")
	if err != nil {
		return Config{}, err
	}
	uploadMax, err := int64Env("UPLOAD_MAX_BYTES", 5*1024*1024)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:     os.Getenv("GO_ENV"),
		APIDomain: os.Getenv("API_DOMAIN"),
		FEURL:     os.Getenv("FE_URL"),

		TaxRatePercent:    taxRate,
		OrderNumberPrefix: envDefault("ORDER_NUMBER_PREFIX", "ORD"),

		CODEnabled:     envDefault("COD_ENABLED", "true") == "true",
		CODFee:         codFee,
		CODMinSubtotal: codMin,
		CODMaxSubtotal: codMax,
		CODCountries:   csvEnv("COD_COUNTRIES"),

		UploadDir:      envDefault("UPLOAD_DIR", "./uploads"),
		UploadMaxBytes: uploadMax,
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.APIDomain == "" {
		return Config{}, fmt.Errorf("API_DOMAIN is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func envDefault(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func decimalEnv(key string, def string) (decimal.Decimal, error) {
	v := envDefault(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be decimal: %w", key, err)
	}
	return d, nil
}

func int64Env(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

// "JP,US" → ["JP","US"]
func csvEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
