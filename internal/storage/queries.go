package storage

const transactionColumns = `id, description, amount_cents, due_date, is_paid, card_id,
	group_id, installment_number, installment_count`

const (
	insertCard = `INSERT INTO cards (name, closing_day, due_day) VALUES (?, ?, ?)`

	upsertCard = `INSERT INTO cards (name, closing_day, due_day) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET closing_day = excluded.closing_day, due_day = excluded.due_day
RETURNING id`

	updateCard = `UPDATE cards SET name = ?, closing_day = ?, due_day = ? WHERE id = ?`

	selectCard = `SELECT id, name, closing_day, due_day FROM cards WHERE id = ?`

	selectCards = `SELECT id, name, closing_day, due_day FROM cards ORDER BY name`

	insertTransaction = `INSERT INTO transactions
	(description, amount_cents, due_date, is_paid, card_id, group_id, installment_number, installment_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	selectTransactionsBetween = `SELECT ` + transactionColumns + ` FROM transactions
WHERE due_date BETWEEN ? AND ?
ORDER BY due_date, id`

	selectCardTransactionsBetween = `SELECT ` + transactionColumns + ` FROM transactions
WHERE card_id = ? AND due_date BETWEEN ? AND ?
ORDER BY due_date, id`

	selectUnpaidThrough = `SELECT ` + transactionColumns + ` FROM transactions
WHERE is_paid = 0 AND due_date <= ?
ORDER BY due_date, id`

	selectGroup = `SELECT ` + transactionColumns + ` FROM transactions
WHERE group_id = ? AND group_id != ''
ORDER BY installment_number, due_date, id`

	updatePaid = `UPDATE transactions SET is_paid = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
)
