package fraud

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"relaybot/backend/internal/config"
)

// Oracle 查询外部欺诈名单。
// 名单每次检查实时拉取，不做本地缓存，结果仅作提示用途。
type Oracle struct {
	listURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewOracle 创建欺诈名单查询器。
func NewOracle(cfg *config.FraudConfig, log *zap.Logger) *Oracle {
	return &Oracle{
		listURL: cfg.ListURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// IsFraud 报告访客 ID 是否出现在欺诈名单中。
// 拉取失败时返回 (false, err)：传输故障不能升级为误报。
func (o *Oracle) IsFraud(ctx context.Context, id int64) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.listURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to fetch fraud list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fraud list fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read fraud list: %w", err)
	}

	target := strconv.FormatInt(id, 10)
	for _, line := range strings.Split(string(body), "\n") {
		if strings.TrimSpace(line) == target {
			return true, nil
		}
	}
	return false, nil
}
