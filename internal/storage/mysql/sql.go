package mysql

// Column order shared by every SELECT and scanHotel.
const hotelColumns = `
  id, owner_id,
  name, name_en, address, star_level, min_price, images, facilities,
  description, open_date, cover_image,
  status, original_status, pending_action, pending_data, reject_reason,
  version, created_at, updated_at`

const insertHotelSQL = `
INSERT INTO hotels
  (id, owner_id, name, name_en, address, star_level, min_price, images, facilities,
   description, open_date, cover_image, status, version, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getHotelSQL = `SELECT` + hotelColumns + `
FROM hotels
WHERE id = ?
`

const existsHotelSQL = `SELECT 1 FROM hotels WHERE id = ?`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

// updateHotelPrefix is followed by the patch's SET list, then updateHotelWhere.
// The version predicate turns the write into a compare-and-swap.
const updateHotelPrefix = "UPDATE hotels SET "

const updateHotelWhere = " WHERE id = ? AND version = ?"

// -----------------------------------------------------------------------------
// LIST QUERIES
// -----------------------------------------------------------------------------

// Filters are appended as "AND col = ?" after the 1=1 anchor.
const listHotelsPrefix = `SELECT` + hotelColumns + `
FROM hotels
WHERE 1=1`

const countHotelsPrefix = `SELECT COUNT(*) FROM hotels WHERE 1=1`

const listHotelsSuffix = `
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`
