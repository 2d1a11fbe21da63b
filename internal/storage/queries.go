package storage

const (
	// Account queries
	GetAccountByNumberQuery = `
		SELECT id, customer_id, account_number, balance, atm_pin_hash, pin_attempts, pin_locked_until, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`

	// Первый открытый счет клиента используется как счет списания по умолчанию
	GetPrimaryAccountByCustomerQuery = `
		SELECT id, customer_id, account_number, balance, atm_pin_hash, pin_attempts, pin_locked_until, created_at, updated_at
		FROM accounts
		WHERE customer_id = $1
		ORDER BY created_at, account_number
		LIMIT 1
	`

	GetCustomerAccountsQuery = `
		SELECT id, customer_id, account_number, balance, atm_pin_hash, pin_attempts, pin_locked_until, created_at, updated_at
		FROM accounts
		WHERE customer_id = $1
		ORDER BY created_at, account_number
	`

	// Transaction queries (с FOR UPDATE для блокировки)
	GetAccountBalanceForUpdateQuery = `
		SELECT balance
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	UpdateAccountBalanceQuery = `
		UPDATE accounts
		SET balance = $1, updated_at = now()
		WHERE id = $2
	`

	UpdatePinStateQuery = `
		UPDATE accounts
		SET pin_attempts = $1, pin_locked_until = $2, updated_at = now()
		WHERE id = $3
	`

	SetPinHashQuery = `
		UPDATE accounts
		SET atm_pin_hash = $1, pin_attempts = 0, pin_locked_until = NULL, updated_at = now()
		WHERE id = $2
	`

	CreateTransactionQuery = `
		INSERT INTO transactions (
			id, transfer_id, account_id, terminal_id, counterparty, type, amount,
			is_fraud, block_reason, is_reauth, auth_method, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)
	`

	// Feature queries.
	// $2/$3/$4 - начало окон 1/7/30 дней, $5 - верхняя граница (момент пересчета).
	AggregateCustomerTransactionsQuery = `
		SELECT
			(COUNT(*) FILTER (WHERE t.created_at >= $2))::float8,
			COALESCE(AVG(ABS(t.amount)) FILTER (WHERE t.created_at >= $2), 0)::float8 / 100.0,
			(COUNT(*) FILTER (WHERE t.created_at >= $3))::float8,
			COALESCE(AVG(ABS(t.amount)) FILTER (WHERE t.created_at >= $3), 0)::float8 / 100.0,
			(COUNT(*) FILTER (WHERE t.created_at >= $4))::float8,
			COALESCE(AVG(ABS(t.amount)) FILTER (WHERE t.created_at >= $4), 0)::float8 / 100.0
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.customer_id = $1
			AND t.type = 'debit'
			AND t.created_at >= $4
			AND t.created_at <= $5
	`

	// Кредитовые проводки не учитываются: каждая попытка перевода считается один раз
	AggregateTerminalTransactionsQuery = `
		SELECT
			(COUNT(*) FILTER (WHERE created_at >= $2))::float8,
			COALESCE((COUNT(*) FILTER (WHERE created_at >= $2 AND is_fraud))::float8
				/ NULLIF(COUNT(*) FILTER (WHERE created_at >= $2), 0), 0)::float8,
			(COUNT(*) FILTER (WHERE created_at >= $3))::float8,
			COALESCE((COUNT(*) FILTER (WHERE created_at >= $3 AND is_fraud))::float8
				/ NULLIF(COUNT(*) FILTER (WHERE created_at >= $3), 0), 0)::float8,
			(COUNT(*) FILTER (WHERE created_at >= $4))::float8,
			COALESCE((COUNT(*) FILTER (WHERE created_at >= $4 AND is_fraud))::float8
				/ NULLIF(COUNT(*) FILTER (WHERE created_at >= $4), 0), 0)::float8
		FROM transactions
		WHERE terminal_id = $1
			AND type <> 'credit'
			AND created_at >= $4
			AND created_at <= $5
	`

	GetCustomerFeaturesQuery = `
		SELECT customer_id, nb_tx_1day, avg_amount_1day, nb_tx_7day, avg_amount_7day,
			nb_tx_30day, avg_amount_30day, updated_at
		FROM customer_fraud_features
		WHERE customer_id = $1
	`

	GetTerminalFeaturesQuery = `
		SELECT terminal_id, nb_tx_1day, risk_1day, nb_tx_7day, risk_7day,
			nb_tx_30day, risk_30day, updated_at
		FROM terminal_fraud_features
		WHERE terminal_id = $1
	`

	UpsertCustomerFeaturesQuery = `
		INSERT INTO customer_fraud_features (
			customer_id, nb_tx_1day, avg_amount_1day, nb_tx_7day, avg_amount_7day,
			nb_tx_30day, avg_amount_30day, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (customer_id) DO UPDATE SET
			nb_tx_1day = EXCLUDED.nb_tx_1day,
			avg_amount_1day = EXCLUDED.avg_amount_1day,
			nb_tx_7day = EXCLUDED.nb_tx_7day,
			avg_amount_7day = EXCLUDED.avg_amount_7day,
			nb_tx_30day = EXCLUDED.nb_tx_30day,
			avg_amount_30day = EXCLUDED.avg_amount_30day,
			updated_at = now()
	`

	UpsertTerminalFeaturesQuery = `
		INSERT INTO terminal_fraud_features (
			terminal_id, nb_tx_1day, risk_1day, nb_tx_7day, risk_7day,
			nb_tx_30day, risk_30day, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (terminal_id) DO UPDATE SET
			nb_tx_1day = EXCLUDED.nb_tx_1day,
			risk_1day = EXCLUDED.risk_1day,
			nb_tx_7day = EXCLUDED.nb_tx_7day,
			risk_7day = EXCLUDED.risk_7day,
			nb_tx_30day = EXCLUDED.nb_tx_30day,
			risk_30day = EXCLUDED.risk_30day,
			updated_at = now()
	`

	// Restoration queries
	GetRestorationQuery = `
		SELECT customer_id, is_limited, limit_amount, expires_at, last_restored_at, updated_at
		FROM restoration_limits
		WHERE customer_id = $1
	`

	ActivateRestorationQuery = `
		INSERT INTO restoration_limits (customer_id, is_limited, limit_amount, expires_at, last_restored_at, updated_at)
		VALUES ($1, TRUE, $2, $3, $4, now())
		ON CONFLICT (customer_id) DO UPDATE SET
			is_limited = TRUE,
			limit_amount = EXCLUDED.limit_amount,
			expires_at = EXCLUDED.expires_at,
			last_restored_at = EXCLUDED.last_restored_at,
			updated_at = now()
	`

	ClearRestorationQuery = `
		UPDATE restoration_limits
		SET is_limited = FALSE, expires_at = NULL, updated_at = now()
		WHERE customer_id = $1
	`

	// Снимает только истекшее ограничение, чтобы не затереть параллельную активацию
	ClearExpiredRestorationQuery = `
		UPDATE restoration_limits
		SET is_limited = FALSE, expires_at = NULL, updated_at = now()
		WHERE customer_id = $1 AND is_limited AND expires_at IS NOT NULL AND expires_at <= $2
	`
)
