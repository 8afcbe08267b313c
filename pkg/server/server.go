// Package server は、絵コンテ編集セッション1つをブラウザへ公開する
// HTTP API です。UI 本体は持たず、Board の変更操作と読み取り専用ビュー、
// エクスポート成果物のダウンロードだけを提供します。
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shouni/go-storyboard-kit/pkg/board"
)

// maxAssetUploadBytes は参照画像1枚あたりのアップロード上限です。
const maxAssetUploadBytes = 20 << 20 // 20 MiB

// Server は1つの Board を公開する HTTP サーバーです。
type Server struct {
	board   *board.Board
	mux     *chi.Mux
	metrics *metrics
}

// metrics は Prometheus カウンター一式です。
type metrics struct {
	registry     *prometheus.Registry
	rendersTotal *prometheus.CounterVec
	plansTotal   *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyboard_shot_renders_total",
			Help: "単一ショット生成の実行回数（結果別）",
		}, []string{"status"}),
		plansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storyboard_sequence_generations_total",
			Help: "全編生成の実行回数（結果別）",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.rendersTotal, m.plansTotal)
	return m
}

// New は Board を公開する Server を生成します。
func New(b *board.Board) *Server {
	s := &Server{
		board:   b,
		mux:     chi.NewRouter(),
		metrics: newMetrics(),
	}
	s.routes()
	return s
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.Use(middleware.Recoverer)

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/board", s.handleGetBoard)
		r.Put("/scene", s.handlePutScene)

		r.Post("/assets", s.handleAddAsset)
		r.Delete("/assets/{id}", s.handleRemoveAsset)

		r.Patch("/shots/{index}", s.handleUpdateShot)
		r.Get("/shots/{index}/image", s.handleShotImage)
		r.Post("/shots/{index}/regenerate", s.handleRegenerateShot)

		r.Post("/generate", s.handleGenerateSequence)

		r.Get("/export/zip", s.handleExportZip)
		r.Get("/export/grid", s.handleExportGrid)
	})

	s.mux.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
}

// errorResponse は API が返すエラーの JSON 表現です。
type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError は board のエラー分類を HTTP ステータスへ対応付けます。
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := ""

	var boardErr *board.Error
	if errors.As(err, &boardErr) {
		kind = string(boardErr.Kind)
		switch boardErr.Kind {
		case board.KindValidation:
			status = http.StatusBadRequest
		case board.KindNotFound:
			status = http.StatusNotFound
		case board.KindConflict:
			status = http.StatusConflict
		case board.KindPlanning, board.KindRender, board.KindProtocol:
			status = http.StatusBadGateway
		}
	}

	slog.Warn("APIエラーを返します", "status", status, "kind", kind, "error", err)
	writeJSON(w, status, errorResponse{Kind: kind, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("JSONレスポンスの書き込みに失敗しました", "error", err)
	}
}
