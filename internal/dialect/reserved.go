package dialect

import "strings"

// coreReserved are reserved in every supported dialect.
const coreReserved = `
add all alter and any as asc between by case check column constraint create
cross current_date current_time current_timestamp default delete desc
distinct drop else end exists false foreign from full grant group having in
inner insert intersect into is join left like not null on or order outer
primary references revoke right select set table then to true union unique
update using values when where with
`

var dialectReserved = map[Name]string{
	MySQL: `
accessible analyze database databases div dual explain fulltext index
interval key keys kill limit lock match mod natural option range read rank
regexp release rename repeat replace require row rows schema schemas show
signal spatial sql ssl starting straight_join trigger undo unlock
unsigned usage use utc_date utc_time utc_timestamp window write xor year_month
zerofill
`,
	PostgreSQL: `
analyse analyze array asymmetric both cast collate concurrently current_catalog
current_role current_schema current_user deferrable do fetch for freeze ilike
initially isnull lateral leading limit localtime localtimestamp natural notnull
offset only overlaps placing returning session_user similar some symmetric
tablesample trailing user variadic verbose window
`,
	SQLServer: `
backup begin break browse bulk cascade checkpoint close clustered coalesce
commit compute contains containstable continue convert current current_user
cursor database dbcc deallocate declare deny disk distributed double dump
errlvl escape except exec execute exit external fetch file fillfactor for
freetext function goto holdlock identity identity_insert identitycol if index
key kill lineno load merge national nocheck nonclustered of off offsets open
openquery option over percent pivot plan precision print proc procedure public
raiserror read readtext reconfigure replication restore restrict return
revert rollback rowcount rowguidcol rule save schema securityaudit
semantickeyphrasetable session_user setuser shutdown some statistics
system_user tablesample textsize top tran transaction trigger truncate
try_convert tsequal unpivot updatetext use user view waitfor while
writetext
`,
	Oracle: `
access audit char cluster comment compress connect date decimal exclusive file
float identified immediate increment index initial integer level lock long
maxextents minus mlslabel mode modify noaudit nocompress nowait number of
offline online option pctfree prior privileges public raw rename resource row
rowid rownum rows session share size smallint start successful synonym
sysdate trigger uid user validate varchar varchar2 view whenever
`,
	SQLite: `
abort action after analyze attach autoincrement before begin cascade collate
commit conflict database deferrable deferred detach each escape except
exclusive explain fail for glob if ignore immediate index indexed initially
instead isnull key limit match natural no notnull of offset plan pragma query
raise recursive regexp reindex release rename replace restrict rollback row
savepoint temp temporary transaction trigger vacuum view virtual
`,
	ANSI: `
absolute action allocate are assertion at authorization avg bit bit_length
both cascade cascaded cast catalog char char_length character coalesce
collate collation commit connect connection continue convert corresponding
count current cursor date day deallocate dec decimal declare deferrable
deferred describe descriptor diagnostics disconnect domain double escape
except exception exec execute external extract fetch first float for found go
goto hour identity immediate indicator initially input insensitive int integer
interval isolation key language last leading level local lower match max min
minute module month names national natural nchar next no numeric octet_length
of only open option output overlaps pad partial position precision prepare
preserve prior privileges procedure public read real relative restrict
rollback rows schema scroll second section session session_user size smallint
some space sql sqlcode sqlerror sqlstate substring sum system_user temporary
time timestamp timezone_hour timezone_minute trailing transaction translate
translation trim upper usage user value varchar varying view whenever work
write year zone
`,
}

func reservedSet(name Name) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(coreReserved + dialectReserved[name]) {
		set[w] = struct{}{}
	}
	return set
}
