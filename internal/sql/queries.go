package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/insert_case.sql
var InsertCase string

//go:embed queries/select_case.sql
var SelectCase string

//go:embed queries/select_bill_items.sql
var SelectBillItems string

//go:embed queries/select_authorization_lines.sql
var SelectAuthorizationLines string

//go:embed queries/select_contract_rules.sql
var SelectContractRules string

//go:embed queries/find_case_by_sha.sql
var FindCaseBySHA string

//go:embed queries/select_folios.sql
var SelectFolios string
