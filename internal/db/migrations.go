package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'lead_status') THEN
			CREATE TYPE lead_status AS ENUM ('NEW', 'CONTACTED', 'QUALIFIED', 'WALKTHROUGH', 'PROPOSAL', 'QUOTED', 'WON', 'LOST', 'CHURNED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'quote_status') THEN
			CREATE TYPE quote_status AS ENUM ('DRAFT', 'SENT', 'ACCEPTED', 'REJECTED', 'EXPIRED', 'CHANGES_REQUESTED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'work_order_status') THEN
			CREATE TYPE work_order_status AS ENUM ('PENDING_ASSIGNMENT', 'ACTIVE', 'PAUSED', 'COMPLETED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'invoice_status') THEN
			CREATE TYPE invoice_status AS ENUM ('PENDING', 'SENT', 'PAID', 'VOID');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'remittance_status') THEN
			CREATE TYPE remittance_status AS ENUM ('PENDING', 'SENT', 'PAID', 'VOID');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'commission_status') THEN
			CREATE TYPE commission_status AS ENUM ('ACTIVE', 'COMPLETED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'mail_status') THEN
			CREATE TYPE mail_status AS ENUM ('PENDING', 'SENT', 'FAILED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		contact_name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		service_area VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS scope_templates (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		service_type VARCHAR(128) NOT NULL,
		tasks JSONB NOT NULL DEFAULT '[]',
		start_time VARCHAR(8) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_scope_templates_service_type ON scope_templates (service_type);`,
	`CREATE TABLE IF NOT EXISTS leads (
		id UUID PRIMARY KEY,
		business_name VARCHAR(255) NOT NULL,
		contact_name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		zip VARCHAR(16) NOT NULL DEFAULT '',
		facility_type VARCHAR(128) NOT NULL DEFAULT '',
		status lead_status NOT NULL DEFAULT 'NEW',
		source VARCHAR(128) NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		audit_slots JSONB NOT NULL DEFAULT '[]',
		contract_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads (status);`,
	`CREATE TABLE IF NOT EXISTS quotes (
		id UUID PRIMARY KEY,
		lead_id UUID NOT NULL REFERENCES leads(id),
		version INT NOT NULL,
		line_items JSONB NOT NULL DEFAULT '[]',
		total_monthly_rate NUMERIC(18,2) NOT NULL,
		tenure_months INT NOT NULL,
		payment_terms VARCHAR(128) NOT NULL DEFAULT '',
		exit_clause TEXT NOT NULL DEFAULT '',
		review_token VARCHAR(64) NOT NULL,
		status quote_status NOT NULL DEFAULT 'DRAFT',
		accepted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quotes_lead_version ON quotes (lead_id, version);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quotes_review_token ON quotes (review_token);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY,
		lead_id UUID NOT NULL REFERENCES leads(id),
		quote_id UUID NOT NULL REFERENCES quotes(id),
		business_name VARCHAR(255) NOT NULL,
		total_monthly_rate NUMERIC(18,2) NOT NULL,
		tenure_months INT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		payment_terms VARCHAR(128) NOT NULL DEFAULT '',
		exit_clause TEXT NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_quote_id ON contracts (quote_id);`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id UUID PRIMARY KEY,
		lead_id UUID NOT NULL REFERENCES leads(id),
		contract_id UUID NOT NULL REFERENCES contracts(id),
		location TEXT NOT NULL,
		zip VARCHAR(16) NOT NULL DEFAULT '',
		service_type VARCHAR(128) NOT NULL,
		tasks JSONB NOT NULL DEFAULT '[]',
		schedule JSONB NOT NULL DEFAULT '{}',
		vendor_history JSONB NOT NULL DEFAULT '[]',
		client_rate NUMERIC(18,2) NOT NULL,
		service_start_date DATE,
		status work_order_status NOT NULL DEFAULT 'PENDING_ASSIGNMENT',
		qr_code_secret VARCHAR(128) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_lead_id ON work_orders (lead_id);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_status ON work_orders (status);`,
	`CREATE TABLE IF NOT EXISTS check_ins (
		id UUID PRIMARY KEY,
		work_order_id UUID NOT NULL REFERENCES work_orders(id),
		qr_valid BOOLEAN NOT NULL,
		tasks JSONB NOT NULL DEFAULT '[]',
		completion_rate INT NOT NULL,
		score INT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		actor_id UUID NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_check_ins_work_order_id ON check_ins (work_order_id);`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY,
		lead_id UUID NOT NULL REFERENCES leads(id),
		business_name VARCHAR(255) NOT NULL DEFAULT '',
		line_items JSONB NOT NULL DEFAULT '[]',
		subtotal NUMERIC(18,2) NOT NULL,
		total_tax NUMERIC(18,2) NOT NULL,
		total_amount NUMERIC(18,2) NOT NULL,
		vendor_payouts JSONB NOT NULL DEFAULT '[]',
		total_payouts NUMERIC(18,2) NOT NULL,
		gross_margin NUMERIC(18,2) NOT NULL,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		due_date DATE NOT NULL,
		payment_token VARCHAR(64) NOT NULL,
		status invoice_status NOT NULL DEFAULT 'PENDING',
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_lead_id ON invoices (lead_id);`,
	`CREATE TABLE IF NOT EXISTS vendor_remittances (
		id UUID PRIMARY KEY,
		invoice_id UUID NOT NULL REFERENCES invoices(id),
		vendor_id UUID NOT NULL REFERENCES vendors(id),
		vendor_name VARCHAR(255) NOT NULL DEFAULT '',
		line_items JSONB NOT NULL DEFAULT '[]',
		total_amount NUMERIC(18,2) NOT NULL,
		total_tax NUMERIC(18,2) NOT NULL,
		tax_exempt BOOLEAN NOT NULL DEFAULT TRUE,
		certificate_id VARCHAR(32) NOT NULL DEFAULT '',
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		due_date DATE NOT NULL,
		status remittance_status NOT NULL DEFAULT 'PENDING',
		payment_method VARCHAR(64) NOT NULL DEFAULT '',
		payment_reference VARCHAR(128) NOT NULL DEFAULT '',
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_vendor_remittances_invoice_vendor ON vendor_remittances (invoice_id, vendor_id);`,
	`CREATE TABLE IF NOT EXISTS commissions (
		id UUID PRIMARY KEY,
		staff_id UUID NOT NULL,
		quote_id UUID NOT NULL,
		lead_id UUID NOT NULL,
		type VARCHAR(32) NOT NULL,
		mrr NUMERIC(18,2) NOT NULL,
		acv NUMERIC(18,2) NOT NULL,
		rate NUMERIC(6,4) NOT NULL,
		total_commission NUMERIC(18,2) NOT NULL,
		status commission_status NOT NULL DEFAULT 'ACTIVE',
		payout_schedule JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_commissions_staff_id ON commissions (staff_id);`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id UUID PRIMARY KEY,
		action VARCHAR(64) NOT NULL,
		actor_id UUID NOT NULL,
		actor_name VARCHAR(255) NOT NULL DEFAULT '',
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_action ON activity_logs (action);`,
	`CREATE TABLE IF NOT EXISTS mail_queue (
		id UUID PRIMARY KEY,
		recipient VARCHAR(255) NOT NULL,
		subject VARCHAR(255) NOT NULL,
		template_type VARCHAR(64) NOT NULL,
		template_data JSONB NOT NULL DEFAULT '{}',
		status mail_status NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_mail_queue_status ON mail_queue (status);`,
	`CREATE TABLE IF NOT EXISTS tax_rates (
		zip VARCHAR(16) PRIMARY KEY,
		rate NUMERIC(6,4) NOT NULL
	);`,
	`INSERT INTO tax_rates (zip, rate) VALUES
		('10001', 0.08875),
		('10451', 0.08875),
		('11201', 0.08875),
		('10501', 0.08375),
		('12601', 0.08125)
	ON CONFLICT (zip) DO NOTHING;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
