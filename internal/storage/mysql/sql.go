package mysql

const reviewColumns = "review_id, arena_id, stage_code, section, seat_id, row_line, column_line, concert_id, " +
	"concert_name, stage_type, content, view_score, seat_distance, sound, photo_url, user_id, nickname, " +
	"written_at, modified_at, raw"

const insertReviewsPrefix = "INSERT INTO sight_reviews\n  (" + reviewColumns + ")\nVALUES "

// 20 params per row
const reviewRowPlaceholders = "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)"

// Listing context (arena, stage, section) is only ever filled in: a review
// pulled later through mypage must not erase where it was first seen.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  arena_id      = COALESCE(VALUES(arena_id), sight_reviews.arena_id),\n" +
	"  stage_code    = COALESCE(VALUES(stage_code), sight_reviews.stage_code),\n" +
	"  section       = COALESCE(VALUES(section), sight_reviews.section),\n" +
	"  seat_id       = VALUES(seat_id),\n" +
	"  row_line      = VALUES(row_line),\n" +
	"  column_line   = VALUES(column_line),\n" +
	"  concert_id    = VALUES(concert_id),\n" +
	"  concert_name  = VALUES(concert_name),\n" +
	"  stage_type    = VALUES(stage_type),\n" +
	"  content       = VALUES(content),\n" +
	"  view_score    = VALUES(view_score),\n" +
	"  seat_distance = VALUES(seat_distance),\n" +
	"  sound         = VALUES(sound),\n" +
	"  photo_url     = VALUES(photo_url),\n" +
	"  user_id       = VALUES(user_id),\n" +
	"  nickname      = VALUES(nickname),\n" +
	"  written_at    = COALESCE(VALUES(written_at), sight_reviews.written_at),\n" +
	"  modified_at   = COALESCE(VALUES(modified_at), sight_reviews.modified_at),\n" +
	"  raw           = COALESCE(VALUES(raw), sight_reviews.raw)\n"

const insertMissSQL = `
INSERT INTO archive_misses (source, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getReviewSQL = "SELECT " + reviewColumns + " FROM sight_reviews WHERE review_id = ?"

// listArenaReviewsSQL takes arena, stage, section; the seat predicate and
// LIMIT are appended by the repo.
const listArenaReviewsSQL = "SELECT " + reviewColumns + `
FROM sight_reviews
WHERE arena_id = ? AND stage_code = ? AND section = ?`

const listArenaOrder = "\nORDER BY written_at DESC, review_id DESC\nLIMIT ?"
