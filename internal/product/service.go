// Package product は商品カタログのドメインロジックを提供する。
package product

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/security"
)

// imageProbeTimeout は商品画像URLの到達性確認のタイムアウト。
const imageProbeTimeout = 5 * time.Second

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Service は商品カタログのサービス層。
// 公開側の閲覧操作と管理者専用のCRUD操作を提供する。
type Service struct {
	productRepo repository.ProductRepository
	guard       security.SSRFGuardService
	sanitizer   security.ContentSanitizerService

	// probeClient は画像URLの到達性確認に使用するSSRF防止付きクライアント。
	// nilの場合は到達性確認をスキップする（ユニットテスト用）。
	probeClient *http.Client
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	productRepo repository.ProductRepository,
	guard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		productRepo: productRepo,
		guard:       guard,
		sanitizer:   sanitizer,
	}
}

// WithImageProbe は商品画像URLの到達性確認を有効にする。
// SSRF防止付きクライアントでHEADリクエストを送信する。
func (s *Service) WithImageProbe() *Service {
	s.probeClient = s.guard.NewSafeClient(imageProbeTimeout)
	return s
}

// ListResult は商品一覧取得の結果。
type ListResult struct {
	Products []*model.Product
	Total    int
	Page     int
	Limit    int
}

// List は検索条件に一致する商品一覧をページングして返す。認証不要。
func (s *Service) List(ctx context.Context, params repository.ListProductsParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageLimit
	}
	if params.Limit > maxPageLimit {
		params.Limit = maxPageLimit
	}

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Products: products,
		Total:    total,
		Page:     params.Page,
		Limit:    params.Limit,
	}, nil
}

// Get は指定IDの商品を取得する。認証不要。
func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// Input は商品の作成・更新の入力。
type Input struct {
	Name        string
	Description string
	ProductType string
	Price       int64
	Stock       int
	ImageURL    string
}

// Create は商品を作成する。管理者専用。
// 説明文はサニタイズされ、画像URLはSSRF防止の検証を通過する必要がある。
func (s *Service) Create(ctx context.Context, input Input) (*model.Product, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		ProductType: input.ProductType,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("商品の作成に失敗しました: %w", err)
	}

	return product, nil
}

// Update は商品情報を更新する。管理者専用。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Product, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		ProductType: input.ProductType,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
	}

	found, err := s.productRepo.Update(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewProductNotFoundError(id)
	}

	return product, nil
}

// Delete は商品を削除する。管理者専用。冪等。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	return nil
}

// validate は入力を検証し、説明文のサニタイズと画像URLの検証を行う。
func (s *Service) validate(ctx context.Context, input *Input) error {
	if input.Name == "" {
		return model.NewInvalidRequestError("商品名は必須です。")
	}
	if input.Price < 0 {
		return model.NewInvalidRequestError("価格は0以上である必要があります。")
	}
	if input.Stock < 0 {
		return model.NewInvalidRequestError("在庫数は0以上である必要があります。")
	}

	input.Description = s.sanitizer.Sanitize(input.Description)

	if input.ImageURL != "" {
		// スキーム・形式の検証
		parsed, err := url.Parse(input.ImageURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return model.NewInvalidURLError(input.ImageURL)
		}

		// 内部ネットワーク宛のURLを拒否
		if err := s.guard.ValidateURL(input.ImageURL); err != nil {
			return model.NewSSRFBlockedError()
		}

		// 到達性確認（有効化されている場合のみ）
		if s.probeClient != nil {
			if err := s.probeImage(ctx, input.ImageURL); err != nil {
				return model.NewInvalidURLError("画像URLに到達できません")
			}
		}
	}

	return nil
}

// probeImage は画像URLにHEADリクエストを送信して到達性を確認する。
func (s *Service) probeImage(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.probeClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	return nil
}
