package prompt

const systemTemplate = `
Là một quản trị viên cơ sở dữ liệu chuyên nghiệp và giàu kinh nghiệm, nhiệm vụ của bạn là phân tích câu hỏi của người dùng và lược đồ cơ sở dữ liệu {dialect} để cung cấp thông tin liên quan. Bạn được cung cấp ` + "`Câu hỏi`" + ` của người dùng và ` + "`Lược đồ DB`" + ` chứa cấu trúc cơ sở dữ liệu.
`

const tableLinkingTemplate = `
Hãy suy nghĩ từng bước. Xác định và liệt kê tất cả các tên bảng liên quan từ lược đồ DB dựa trên câu hỏi của người dùng và lược đồ cơ sở dữ liệu được cung cấp. Hãy đảm bảo bạn bao gồm tất cả các bảng liên quan.

**Câu hỏi SQL**: {question}

**Lược đồ DB**: {schema}

**Kết quả**:
- Trả về JSON dạng {"tables": ["bảng1", "bảng2", "bảng3"]} chứa danh sách tên các bảng liên quan.
`

const genPrefixTemplate = `
**CHÚ Ý**:
- Phải tuân thủ đúng cú pháp và các quy tắc của hệ quản trị cơ sở dữ liệu {dialect}.
- Câu truy vấn SQL phải chứa thông tin có ý nghĩa và dễ hiểu cho người dùng.

`

const genSuffixTemplate = `
**Đầu vào**:
- Câu hỏi SQL: {question}
- Cấu trúc cơ sở dữ liệu: {schema}
- Bằng chứng:
{evidence}
- Nhắc lại câu hỏi SQL: {question}
- Hệ quản trị cơ sở dữ liệu: {dialect}

---

**Đầu ra**: JSON với các trường "sql" (câu lệnh {dialect} trên một dòng duy nhất) và "explaination" (giải thích).
`

// generationBodies holds one template body per strategy; the shared prefix
// and suffix are attached at format time.
var generationBodies = map[string]string{
	StrategyDirect:    directGenerationBody,
	StrategyCoT:       cotGenerationBody,
	StrategyDaCCoT:    dacCotGenerationBody,
	StrategyQueryPlan: queryPlanGenerationBody,
}

const directGenerationBody = `
**Yêu cầu**: Hãy suy nghĩ từng bước và giải quyết câu hỏi bằng cách đưa ra câu lệnh SQL chính xác để giải quyết câu hỏi. Bạn có khả năng chọn lọc và cung cấp thông tin **dễ hiểu**, **có ngữ nghĩa** khi trả lời câu hỏi, ngay cả khi phải tham chiếu qua nhiều bảng. Kết quả sau khi truy vấn phải dễ hiểu, hữu ích khiến người dùng cuối thực sự muốn thấy và có thể hiểu được.

---

**Lưu ý**:
1. Chỉ sử dụng các bảng được cung cấp để giải quyết nhiệm vụ. Không tự ý tạo ra tên bảng hoặc tên cột.
2. Sử dụng "bằng chứng" và các bản ghi mẫu cùng mô tả cột được cung cấp để lập luận.
3. Đừng quên các từ khóa như DISTINCT, WHERE, GROUP BY, ORDER BY, LIMIT,... nếu cần thiết.
4. Chỉ chọn những cột mang ý nghĩa diễn giải, thân thiện với người dùng (ví dụ: fullname, name, title, description...). Tránh chọn các ID nếu không thực sự cần thiết.
    - Luôn chọn ` + "`full_name`" + ` thay vì ` + "`id`" + `, ` + "`name`" + ` thay vì ` + "`code`" + ` (nếu schema cho phép).
    - Nếu một bảng chính trong truy vấn không có trường tên/mô tả trực tiếp, nhưng có liên kết (qua khóa ngoại) đến một bảng khác chứa thông tin tên/mô tả liên quan, **hãy thực hiện JOIN để lấy và hiển thị trường tên/mô tả đó.**
5. Bao gồm cả ID nếu hữu ích hoặc cần thiết:
    - Nếu người dùng yêu cầu ID một cách rõ ràng trong câu hỏi.
    - Nếu ID là cách duy nhất để xác định một mục một cách duy nhất.
    - Thường thì việc hiển thị cả ID và tên/mô tả sẽ hữu ích hơn là chỉ hiển thị tên. Hãy cân nhắc điều này.
6. Tự động mở rộng thông tin khi cần:
    - Ví dụ: Khi câu hỏi hỏi về "đơn hàng", không chỉ trả về ` + "`order.id`" + ` mà nên bao gồm cả ` + "`customer.full_name`" + `, ` + "`product.name`" + `, ` + "`order.total_amount`" + `.
7. Nếu bảng chính không có trường diễn giải, hãy JOIN sang bảng liên quan để lấy trường mô tả.

Không suy đoán ngoài dữ liệu và schema đã cung cấp.

---
`

const cotGenerationBody = `
**Yêu cầu**: Hãy suy nghĩ từng bước và giải quyết câu hỏi bằng cách đưa ra câu lệnh SQL chính xác để giải quyết câu hỏi. Bạn có khả năng chọn lọc và cung cấp thông tin **dễ hiểu**, **có ngữ nghĩa** khi trả lời câu hỏi, ngay cả khi phải tham chiếu qua nhiều bảng. Kết quả sau khi truy vấn phải dễ hiểu, hữu ích khiến người dùng cuối thực sự muốn thấy và có thể hiểu được.

**Mô tả nhiệm vụ**:
Bạn là chuyên gia SQL có nhiệm vụ tạo câu truy vấn SQL dựa trên câu hỏi của người dùng.

**Quy trình**:
**Bước 1: Phân tích Câu hỏi SQL**
- Đọc kỹ câu hỏi: "{question}"
- Xác định mục tiêu chính của câu hỏi: Người dùng muốn biết thông tin gì? Có cần thống kê, lọc, sắp xếp không?
- Gạch chân các thực thể và các điều kiện/tiêu chí.

**Bước 2: Xác định Bảng và Liên kết (JOIN) cần thiết**
- Dựa vào Bước 1 và Cấu trúc cơ sở dữ liệu, hãy liệt kê các bảng có khả năng chứa thông tin liên quan.
- Kiểm tra Bằng chứng để hiểu rõ hơn về mối quan hệ giữa các bảng và ý nghĩa của các cột.
- Nếu cần thông tin từ nhiều bảng, hãy xác định các mối quan hệ và quyết định loại JOIN phù hợp.

**Bước 3: Xác định Điều kiện Lọc (WHERE Clause)**
- Dựa vào các tiêu chí đã xác định ở Bước 1, hãy xây dựng các điều kiện WHERE để thu hẹp kết quả.
- Kiểm tra các kiểu dữ liệu và toán tử phù hợp.

**Bước 4: Xác định Nhóm và Tổng hợp (GROUP BY & Aggregate Functions)**
- Nếu câu hỏi yêu cầu tính tổng, trung bình, đếm,... hãy xác định các hàm tổng hợp (COUNT, SUM, AVG, MAX, MIN).
- Xác định các cột mà kết quả cần được nhóm theo (GROUP BY).

**Bước 5: Xác định Sắp xếp và Giới hạn (ORDER BY & LIMIT)**
- Nếu câu hỏi yêu cầu sắp xếp kết quả, hãy xác định cột và thứ tự sắp xếp.
- Nếu câu hỏi yêu cầu chỉ lấy một số lượng kết quả nhất định, hãy xác định LIMIT.

**Bước 6: Chọn Cột Hiển thị trong SELECT (User-Friendly Output Strategy)**
- Đây là bước **quan trọng nhất** để đảm bảo kết quả dễ hiểu cho người dùng.
- **Ưu tiên cao nhất:** Luôn ưu tiên các cột có tính mô tả rõ ràng như ` + "`name`, `title`, `description`, `fullname`, `email`, `product_name`, `category_name`, `order_date`, `status`" + `.
- **Tránh dùng ID trực tiếp** trừ khi câu hỏi chỉ định rõ ràng cần trả về ID, hoặc không có cột mô tả nào phù hợp.
- **Tham chiếu chéo cho thông tin diễn giải:** nếu bảng chính chỉ chứa khóa ngoại, hãy JOIN sang bảng liên quan để lấy trường tên/mô tả.
- **Sử dụng AS (Alias)** để đặt biệt danh dễ đọc hơn cho các cột trong kết quả trả về.

**Bước 7: Tổng hợp Câu lệnh SQL và Kiểm tra Lại**
- Kết hợp tất cả các thành phần trên thành một câu lệnh SQL hoàn chỉnh.
- Đảm bảo câu lệnh không chỉ đúng về mặt cú pháp mà còn cung cấp thông tin giá trị nhất cho người dùng.

**Định dạng đầu ra**: Trình bày câu truy vấn của bạn dưới dạng một dòng mã SQL duy nhất. Đảm bảo không có ngắt dòng trong câu truy vấn.

---
`

const dacCotGenerationBody = `
Bạn là một chuyên gia chuyển đổi câu hỏi tự nhiên thành câu lệnh SQL. Mục tiêu của bạn là tạo ra câu lệnh SQL chính xác, tối ưu, và đặc biệt là *cung cấp kết quả dễ hiểu, có ý nghĩa cho người dùng cuối*.

**Những Nguyên tắc Quan trọng Chung:**
1.  Chỉ sử dụng các bảng cần thiết để giải quyết nhiệm vụ.
2.  Sử dụng "Cấu trúc cơ sở dữ liệu" và "Bằng chứng" để lập luận và xác định các mối quan hệ.
3.  Đảm bảo sử dụng các từ khóa SQL (DISTINCT, WHERE, GROUP BY, ORDER BY, LIMIT, JOIN, Subqueries/CTEs) khi cần.
4.  **Ưu tiên Hiển thị Thông tin Dễ Đọc và Ý Nghĩa (User-Friendly Output):** luôn ưu tiên các cột mang ý nghĩa, dễ đọc; JOIN sang bảng liên quan khi bảng chính thiếu cột mô tả; chỉ trả về ID khi được yêu cầu cụ thể; dùng AS để đặt tên cột thân thiện hơn.
---
**Cấu trúc cơ sở dữ liệu:** {schema}
**Bằng chứng (Các bản ghi mẫu và mô tả cột):**
{evidence}
**Câu hỏi SQL:** {question}

---

**Quá trình suy nghĩ theo chiến lược "Chia để Trị" (Chain-of-Thought):**
**1. Chia để Trị (Divide and Conquer):**
*   **1.1. Câu hỏi Chính:** {question}
    *   Phân tích mục tiêu và phác thảo các cột SELECT dự kiến mang lại thông tin hữu ích cho người dùng cuối.
    *   **Pseudo SQL (Khởi tạo):**
        {fence}
        SELECT [các cột thân thiện người dùng]
        FROM [bảng chính]
        WHERE [điều kiện tổng thể]
        {fence}
*   **1.2. Phân tích Câu hỏi Phụ (Sub-questions):** chia câu hỏi chính thành các câu hỏi nhỏ hơn, độc lập; với mỗi câu hỏi phụ, làm rõ bảng cần thiết, JOIN, điều kiện lọc, nhóm, sắp xếp và Pseudo SQL tương ứng.
**2. Tổng hợp SQL từ các Bước Phụ (Assembling SQL):** chuyển các Pseudo SQL thành câu lệnh SQL cụ thể, bắt đầu từ câu hỏi phụ sâu nhất và xây dựng lên câu hỏi chính.
**3. Đơn giản hóa và Tối ưu hóa (Simplification and Optimization):** kết hợp các truy vấn lồng nhau bằng JOIN hoặc CTEs nếu phù hợp; kiểm tra lại toàn bộ câu lệnh theo các Nguyên tắc Quan trọng Chung, đặc biệt là lựa chọn cột hiển thị.

---
`

const queryPlanGenerationBody = `
Bạn là một chuyên gia chuyển đổi câu hỏi tự nhiên thành câu lệnh SQL. Nhiệm vụ của bạn là tạo ra một câu lệnh SQL chính xác, hiệu quả và *quan trọng nhất là cung cấp kết quả dễ đọc, có ý nghĩa cho người dùng cuối*.

**Những Nguyên tắc Quan trọng Chung:**
1.  Chỉ sử dụng các bảng cần thiết để giải quyết nhiệm vụ.
2.  Sử dụng "Cấu trúc cơ sở dữ liệu" và "Bằng chứng" để lập luận, xác định các mối quan hệ và ý nghĩa dữ liệu.
3.  Đảm bảo sử dụng các từ khóa SQL (DISTINCT, WHERE, GROUP BY, ORDER BY, LIMIT, JOIN, Subqueries/CTEs) khi cần thiết.
4.  **Ưu tiên Hiển thị Thông tin Dễ Đọc và Ý Nghĩa (User-Friendly Output):** luôn ưu tiên các cột mang ý nghĩa; JOIN để lấy trường mô tả khi cần; chỉ trả về ID khi được yêu cầu; dùng AS cho tên cột thân thiện (ví dụ: ` + "`client.A11 AS average_salary_branch`" + `).

---

**Cấu trúc cơ sở dữ liệu:** {schema}
**Bằng chứng (Các bản ghi mẫu và mô tả cột):**
{evidence}

**Câu hỏi SQL:** {question}

---

**Quá trình suy nghĩ theo Kế hoạch Truy vấn (Query Plan - Chain-of-Thought):**

**1. Phân tích Yêu cầu và Xác định Mục tiêu:** đọc kỹ câu hỏi "{question}"; xác định các thực thể chính, điều kiện liên quan và loại thông tin cần hiển thị cho người dùng cuối.

**2. Xây dựng Kế hoạch Truy vấn (Query Plan):** hãy tưởng tượng bạn là một công cụ tối ưu hóa truy vấn của cơ sở dữ liệu và phác thảo các bước xử lý:
*   **2.1. Giai đoạn Chuẩn bị & Khởi tạo:** xác định các bảng dữ liệu gốc cần truy cập và các giá trị cố định cần tìm kiếm.
*   **2.2. Giai đoạn Lọc và Kết nối Dữ liệu (JOIN & WHERE Logic):** mô tả các điều kiện WHERE cho từng bảng, cách các bảng được JOIN và lý do cho mỗi JOIN.
*   **2.3. Giai đoạn Xử lý Dữ liệu (Nhóm, Tổng hợp, Sắp xếp, Giới hạn):** mô tả các phép toán tổng hợp (COUNT, SUM, AVG, MAX, MIN), cột GROUP BY, ORDER BY và LIMIT nếu có.
*   **2.4. Giai đoạn Lựa chọn Cột Cuối cùng và Định dạng (Final SELECT & Presentation):** xác định chính xác các cột trong mệnh đề SELECT cuối cùng, ưu tiên các cột dễ đọc và đề xuất Alias nếu cần.
*   **2.5. Giai đoạn Kết thúc & Trả Về Kết quả:** mô tả cách kết quả cuối cùng được trả về.

**3. Tổng hợp Câu lệnh SQL:** kết hợp tất cả các bước trong Query Plan thành một câu lệnh SQL hoàn chỉnh, tối ưu, tuân thủ các Nguyên tắc Quan trọng Chung.

---
`

const queryFixingTemplate = `
**Mô tả nhiệm vụ**:
Bạn là một chuyên gia cơ sở dữ liệu SQL được giao nhiệm vụ sửa một câu truy vấn SQL. Một lần thử chạy truy vấn trước đó không cho kết quả chính xác, có thể do lỗi khi thực thi hoặc vì kết quả trả về trống hoặc không như mong đợi. Nhiệm vụ của bạn là phân tích lỗi dựa trên lược đồ cơ sở dữ liệu được cung cấp và chi tiết của lần thực thi thất bại, sau đó cung cấp phiên bản đã sửa của câu truy vấn SQL.

**Lưu ý**:
1. Chỉ sử dụng các bảng được cung cấp để giải quyết nhiệm vụ. Không tự ý tạo ra tên bảng hoặc tên cột.
2. Sử dụng "bằng chứng" và các bản ghi mẫu cùng mô tả cột được cung cấp để lập luận.
3. Đừng quên các từ khóa như DISTINCT, WHERE, GROUP BY, ORDER BY, LIMIT,... nếu cần thiết.

**Quy trình**:
1. Xem xét lược đồ cơ sở dữ liệu.
2. Phân tích yêu cầu truy vấn: câu hỏi gốc, gợi ý, câu truy vấn SQL đã thực thi và kết quả thực thi để xác định lý do thất bại.
3. Sửa câu truy vấn: sửa đổi câu truy vấn SQL để giải quyết các vấn đề đã xác định.

**Định dạng đầu ra**: Trình bày câu truy vấn đã sửa của bạn dưới dạng một dòng mã SQL duy nhất trong trường "sql" của JSON trả về, kèm "explaination".

======= Nhiệm vụ của bạn =======
**************************
Các câu lệnh tạo bảng
{schema}
**************************
Câu hỏi gốc là:
- Câu hỏi: {question}
- Bằng chứng:
{evidence}
- Câu truy vấn SQL đã thực thi là: {query}
- Kết quả thực thi: {result}
**************************
Dựa trên câu hỏi, lược đồ bảng và câu truy vấn trước đó, phân tích kết quả và cố gắng sửa câu truy vấn.
`

const queryValidationTemplate = `
**Mô tả nhiệm vụ**:
Bạn là chuyên gia SQL có nhiệm vụ kiểm tra tính hợp lệ của câu truy vấn SQL.

**Câu hỏi của người dùng**: {question}

**Câu truy vấn SQL**:
{fence}sql
{query}
{fence}

**KIỂM TRA KỸ LƯỠNG câu truy vấn ở trên để tìm các lỗi phổ biến, bao gồm**:
- Sử dụng NOT IN với các giá trị NULL
- Sử dụng UNION khi nên dùng UNION ALL
- Sử dụng BETWEEN cho các khoảng không bao gồm biên
- Không khớp kiểu dữ liệu trong các điều kiện
- Đặt tên định danh trong dấu ngoặc kép đúng cách
- Sử dụng đúng số lượng tham số cho các hàm
- Ép kiểu sang đúng kiểu dữ liệu
- Sử dụng đúng cột cho các phép nối
- Cú pháp có đúng hệ quản trị cơ sở dữ liệu: {dialect}

Nếu có bất kỳ lỗi nào trong số các lỗi trên, trả về "is_sql_correct": false. Nếu không có lỗi nào, trả về "is_sql_correct": true, kèm "explaination".
`

const mergerTemplate = `
**Mô tả nhiệm vụ**:
Bạn là một chuyên gia SQL có nhiệm vụ tổng hợp các câu lệnh truy vấn SQL candidate thành một câu lệnh SQL cuối cùng. Dựa trên câu hỏi của người dùng, lược đồ cơ sở dữ liệu, và các câu lệnh SQL candidate được cung cấp, hãy phân tích và chọn ra câu lệnh SQL tốt nhất hoặc kết hợp các phần tốt nhất từ các candidate để tạo ra câu lệnh SQL cuối cùng.

**Quy trình**:
1. **Phân tích câu hỏi**: Đọc kỹ câu hỏi của người dùng để hiểu rõ yêu cầu.
2. **Xem xét lược đồ cơ sở dữ liệu**: Kiểm tra cấu trúc cơ sở dữ liệu để đảm bảo câu lệnh SQL cuối cùng phù hợp với lược đồ.
3. **Đánh giá các câu lệnh SQL candidate**:
   - Kiểm tra tính chính xác của cú pháp.
   - Đánh giá hiệu suất và tối ưu hóa.
   - Xem xét khả năng cung cấp thông tin dễ hiểu và có ý nghĩa cho người dùng.
4. **Tổng hợp câu lệnh SQL cuối cùng**:
   - Chọn câu lệnh SQL tốt nhất từ các candidate.
   - Hoặc kết hợp các phần tốt nhất từ các candidate để tạo ra câu lệnh SQL cuối cùng.
5. **Kiểm tra lại**: Đảm bảo câu lệnh SQL cuối cùng đáp ứng đúng yêu cầu của câu hỏi và tuân thủ các nguyên tắc SQL.

**Định dạng đầu ra**: Trình bày câu lệnh SQL cuối cùng dưới dạng một dòng mã SQL duy nhất trong trường "sql" của JSON trả về, kèm "explaination".

**Các câu lệnh SQL candidate**:
{candidates}

**Kết quả cuối cùng**:
`
