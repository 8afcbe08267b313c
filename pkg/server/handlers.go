package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shouni/go-storyboard-kit/pkg/board"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/export"
)

// shotView は1ショット分の読み取り専用ビューです。画像本体は含めず、
// 有無だけを返します。本体は /api/shots/{index}/image で取得します。
type shotView struct {
	Index     int             `json:"index"`
	ShotType  domain.ShotType `json:"shot_type"`
	Action    string          `json:"action"`
	Zoom      float64         `json:"zoom"`
	Position  domain.Position `json:"position"`
	Rendered  bool            `json:"rendered"`
	Rendering bool            `json:"rendering"`
}

// boardView はボード全体の読み取り専用ビューです。
type boardView struct {
	Title      string              `json:"title"`
	Scene      string              `json:"scene"`
	Generating bool                `json:"generating"`
	Protocol   bool                `json:"protocol_ready"`
	Shots      []shotView          `json:"shots"`
	Assets     []domain.VisualAsset `json:"assets"`
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	shots := s.board.Shots()
	flags := s.board.RenderingFlags()

	view := boardView{
		Title:      s.board.Title(),
		Scene:      s.board.Scene(),
		Generating: s.board.Generating(),
		Protocol:   s.board.Protocol() != "",
		Shots:      make([]shotView, len(shots)),
		Assets:     s.board.Assets(),
	}
	for i, shot := range shots {
		view.Shots[i] = shotView{
			Index:     i,
			ShotType:  shot.Type,
			Action:    shot.Action,
			Zoom:      shot.Zoom,
			Position:  shot.Position,
			Rendered:  shot.Rendered(),
			Rendering: flags[i],
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePutScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scene string `json:"scene"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, board.NewError(board.KindValidation, "リクエストボディを解釈できません"))
		return
	}
	s.board.SetScene(req.Scene)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAssetUploadBytes); err != nil {
		writeError(w, board.WrapError(board.KindValidation, err, "マルチパートフォームを解釈できません"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, board.WrapError(board.KindValidation, err, "file フィールドが必要です"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAssetUploadBytes+1))
	if err != nil {
		writeError(w, board.WrapError(board.KindValidation, err, "アップロードの読み込みに失敗しました"))
		return
	}
	if len(data) > maxAssetUploadBytes {
		writeError(w, board.NewError(board.KindValidation, "参照画像が大きすぎます"))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	label := r.FormValue("label")
	if label == "" {
		label = filepath.Base(header.Filename)
	}

	asset := domain.NewVisualAsset(data, mimeType, domain.ParseAssetKind(r.FormValue("kind")), label)
	s.board.AddAsset(asset)
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleRemoveAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.board.RemoveAsset(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// shotUpdateRequest は PATCH /api/shots/{index} のボディです。
// 指定されたフィールドだけを順に適用します。
type shotUpdateRequest struct {
	Action   *string          `json:"action,omitempty"`
	Zoom     *float64         `json:"zoom,omitempty"`
	Position *domain.Position `json:"position,omitempty"`
	ShotType *string          `json:"shot_type,omitempty"`
}

func (s *Server) handleUpdateShot(w http.ResponseWriter, r *http.Request) {
	index, err := shotIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req shotUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, board.NewError(board.KindValidation, "リクエストボディを解釈できません"))
		return
	}

	if req.Action != nil {
		if err := s.board.SetAction(index, *req.Action); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Zoom != nil {
		if err := s.board.SetZoom(index, *req.Zoom); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Position != nil {
		if err := s.board.SetPosition(index, *req.Position); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.ShotType != nil {
		t, ok := domain.ParseShotType(*req.ShotType)
		if !ok {
			writeError(w, board.NewError(board.KindValidation, "未知のショットタイプです: %s", *req.ShotType))
			return
		}
		if err := s.board.SetShotType(r.Context(), index, t); err != nil {
			writeError(w, err)
			return
		}
	}

	shot, err := s.board.Shot(index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shotView{
		Index:     index,
		ShotType:  shot.Type,
		Action:    shot.Action,
		Zoom:      shot.Zoom,
		Position:  shot.Position,
		Rendered:  shot.Rendered(),
		Rendering: s.board.Rendering(index),
	})
}

func (s *Server) handleShotImage(w http.ResponseWriter, r *http.Request) {
	index, err := shotIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	shot, err := s.board.Shot(index)
	if err != nil {
		writeError(w, err)
		return
	}
	if !shot.Rendered() {
		writeError(w, board.NewError(board.KindNotFound, "このショットはまだ生成されていません"))
		return
	}
	w.Header().Set("Content-Type", shot.Image.MimeType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(shot.Image.Data); err != nil {
		// クライアント切断はここでは無視します。
		return
	}
}

func (s *Server) handleRegenerateShot(w http.ResponseWriter, r *http.Request) {
	index, err := shotIndex(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.board.RegenerateShot(r.Context(), index); err != nil {
		s.metrics.rendersTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	s.metrics.rendersTotal.WithLabelValues("ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateSequence(w http.ResponseWriter, r *http.Request) {
	// 全編生成は分単位で時間がかかりますが、失敗を呼び出し元へそのまま
	// 返すため同期のまま実行します。進捗は GET /api/board で観測できます。
	if err := s.board.GenerateSequence(r.Context()); err != nil {
		s.metrics.plansTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	s.metrics.plansTotal.WithLabelValues("ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="storyboard.zip"`)
	if err := export.WriteZip(w, s.board.Title(), s.board.Shots()); err != nil {
		// ヘッダー送信後はステータスを変えられないため、記録のみ行います。
		slog.Error("ZIPエクスポートの書き込みに失敗しました", "error", err)
	}
}

func (s *Server) handleExportGrid(w http.ResponseWriter, r *http.Request) {
	data, err := export.EncodeGridPNG(s.board.Shots())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="storyboard_grid.png"`)
	_, _ = w.Write(data)
}

// shotIndex は URL パラメータからショット番号を取り出します。
func shotIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, board.NewError(board.KindValidation, "ショット番号を解釈できません: %s", raw)
	}
	return index, nil
}
