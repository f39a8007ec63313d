package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrMonitorAccessOnly ErrCode = "MONITOR_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrNoActiveSession      ErrCode = "NO_ACTIVE_SESSION"
	ErrStaleInteraction     ErrCode = "STALE_INTERACTION"
	ErrExamNotFound         ErrCode = "EXAM_NOT_FOUND"
	ErrExamAlreadyCompleted ErrCode = "EXAM_ALREADY_COMPLETED"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrPersistence          ErrCode = "PERSISTENCE_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrMonitorAccessOnly:
		return "Sumber daya ini terbatas untuk pemantau."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrNoActiveSession:
		return "Tidak ada sesi kuis yang aktif."
	case ErrStaleInteraction:
		return "Jawaban ini bukan untuk pertanyaan yang sedang berjalan."
	case ErrExamNotFound:
		return "Ujian tidak ditemukan."
	case ErrExamAlreadyCompleted:
		return "Anda sudah menyelesaikan ujian ini."
	case ErrNoQuestions:
		return "Tidak ada pertanyaan yang tersedia."
	case ErrPersistence:
		return "Jawaban gagal disimpan. Silakan kirim ulang."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan internal server."
	case ErrServiceUnavailable:
		return "Layanan sedang tidak tersedia."

	default:
		return "Terjadi kesalahan yang tidak diketahui."
	}
}
