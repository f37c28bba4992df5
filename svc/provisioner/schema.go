package provisioner

// TableNames lists the tables every tenant schema contains, in creation
// order. The set is fixed: adding a table here without a data-access story
// for existing tenants is a migration, not a provisioning change.
func TableNames() []string {
	return []string{"users", "invoices", "invoice_items", "tenant_config"}
}

// tenantTableDDL maps each per-tenant table to its CREATE statement. The
// {schema} token receives the sanitized schema identifier; nothing
// user-controlled is ever interpolated.
var tenantTableDDL = map[string]string{
	"users": `CREATE TABLE {schema}.users (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name text NOT NULL,
		email text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		role text NOT NULL DEFAULT 'member',
		organization text,
		reset_token text,
		reset_token_expires_at timestamptz,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,

	"invoices": `CREATE TABLE {schema}.invoices (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		vendor text NOT NULL,
		amount numeric(14,2) NOT NULL CHECK (amount >= 0),
		date date NOT NULL,
		status text NOT NULL DEFAULT 'Pending' CHECK (status IN ('Processed', 'Pending', 'Failed')),
		gst_id text,
		category text NOT NULL CHECK (category IN ('sales', 'expense')),
		tags text[] NOT NULL DEFAULT '{}',
		currency text NOT NULL DEFAULT 'INR',
		language text,
		gst_filing_status text,
		e_invoice_number text,
		place_of_supply text,
		reverse_charge boolean NOT NULL DEFAULT false,
		user_id uuid,
		organization text,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,

	"invoice_items": `CREATE TABLE {schema}.invoice_items (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		invoice_id uuid NOT NULL REFERENCES {schema}.invoices (id) ON DELETE CASCADE,
		description text NOT NULL,
		quantity numeric(12,2) NOT NULL CHECK (quantity >= 0),
		price numeric(14,2) NOT NULL CHECK (price >= 0),
		tax_rate numeric(5,2),
		tax_amount numeric(14,2),
		created_at timestamptz NOT NULL DEFAULT now()
	)`,

	"tenant_config": `CREATE TABLE {schema}.tenant_config (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		key text NOT NULL UNIQUE,
		value text NOT NULL,
		description text,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
}
