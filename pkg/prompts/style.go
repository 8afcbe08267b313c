// Package prompts は、絵コンテの構成案・ビジュアルプロトコル・ショット画像の
// 生成に使う AI プロンプトを構築します。
package prompts

// DefaultStyleSuffix は全ショット共通で適用する画風サフィックスです。
const DefaultStyleSuffix = "cinematic still, film photography, natural lighting, shallow depth of field, high detail, consistent color grading, no text, no watermark"

// RenderingStyle はショット画像の描画品質に関する共通指示です。
const RenderingStyle = `### RENDERING STYLE ###
- Render a single frame as seen through a physical motion-picture camera.
- Keep character appearance, wardrobe and set dressing consistent with the reference images.
- No panel borders, no speech bubbles, no caption text.`

// NegativeShotPrompt は不自然な描画を防ぐための標準ネガティブプロンプトです。
const NegativeShotPrompt = "deformed faces, mismatched eyes, extra limbs, distorted anatomy, split frame, collage, multiple panels, text, watermark, blurry"

// shotSystemInstruction はショット合成時の AI の役割定義です。
const shotSystemInstruction = "You are a professional cinematographer. Create a single high-quality cinematic storyboard frame."

// planSystemInstruction は構成案生成時の AI の役割定義です。
const planSystemInstruction = "You are a film director planning a storyboard. Respond with JSON only."

// protocolSystemInstruction はビジュアルプロトコル抽出時の AI の役割定義です。
const protocolSystemInstruction = "You are a production designer extracting the visual DNA of a project."
